package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopicOrderEvents carries every order lifecycle event. Messages are keyed
// by seller id so one seller's events stay ordered on a partition.
const TopicOrderEvents = "order.events"

const (
	EventOrderCreated        = "OrderCreated"
	EventOrderStatusChanged  = "OrderStatusChanged"
	EventOrderPaymentChanged = "OrderPaymentChanged"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	SellerID      string          `json:"seller_id"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string          `json:"order_id"`
	ExternalID  string          `json:"external_id,omitempty"`
	BuyerID     string          `json:"buyer_id"`
	SellerID    string          `json:"seller_id"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderStatusChangedPayload struct {
	OrderID  string `json:"order_id"`
	SellerID string `json:"seller_id"`
	From     Status `json:"from"`
	To       Status `json:"to"`
}

type OrderPaymentChangedPayload struct {
	OrderID  string        `json:"order_id"`
	SellerID string        `json:"seller_id"`
	From     PaymentStatus `json:"from"`
	To       PaymentStatus `json:"to"`
}

// NewEnvelope wraps payload for o's seller. It fails only when payload
// cannot be encoded.
func NewEnvelope(eventType, producer, traceID string, o Order, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: o.ID,
		SellerID:      o.SellerID,
		Payload:       b,
	}, nil
}

func PartitionKey(sellerID string) []byte { return []byte(sellerID) }
