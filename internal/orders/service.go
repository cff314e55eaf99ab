package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	kafkax "github.com/ariefcatur/go-marketplace-orders/internal/kafka"
	"github.com/ariefcatur/go-marketplace-orders/internal/metrics"
)

type Store interface {
	Create(ctx context.Context, in NewOrder) (Order, bool, error)
	Get(ctx context.Context, id string) (Order, error)
	ListBySeller(ctx context.Context, sellerID string, f ListFilter) ([]Order, error)
	ListByBuyer(ctx context.Context, buyerID string, f ListFilter) ([]Order, error)
	Transition(ctx context.Context, id, sellerID string, to Status) (Order, Status, error)
	UpdatePayment(ctx context.Context, id, sellerID string, to PaymentStatus) (Order, PaymentStatus, error)
	StatusCounts(ctx context.Context, sellerID string) (map[Status]int, error)
}

// Publisher is satisfied by the kafka producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// IdempotencyIndex is a fast lookup of orders by (buyer, external_id).
// The database constraint stays authoritative.
type IdempotencyIndex interface {
	Lookup(ctx context.Context, buyerID, externalID string) (string, bool, error)
	Remember(ctx context.Context, buyerID, externalID, orderID string) error
}

type Service struct {
	store    Store
	events   Publisher
	idem     IdempotencyIndex
	logger   *slog.Logger
	producer string
}

// NewService wires the order workflow. events may be nil, which disables publishing.
func NewService(store Store, events Publisher, logger *slog.Logger, producer string) *Service {
	return &Service{store: store, events: events, logger: logger, producer: producer}
}

// WithIdempotency enables the external_id fast path.
func (s *Service) WithIdempotency(idx IdempotencyIndex) *Service {
	s.idem = idx
	return s
}

func (s *Service) Create(ctx context.Context, in NewOrder) (Order, bool, error) {
	if o, ok := s.replay(ctx, in); ok {
		return o, true, nil
	}
	o, existed, err := s.store.Create(ctx, in)
	if err != nil {
		metrics.OrderCreateFailures.WithLabelValues(failureReason(err)).Inc()
		s.logger.WarnContext(ctx, "order rejected", "buyer_id", in.BuyerID, "seller_id", in.SellerID, "error", err)
		return Order{}, false, err
	}
	if existed {
		s.logger.InfoContext(ctx, "order replayed", "order_id", o.ID, "external_id", in.ExternalID)
		return o, true, nil
	}

	if s.idem != nil && in.ExternalID != "" {
		if err := s.idem.Remember(ctx, in.BuyerID, in.ExternalID, o.ID); err != nil {
			s.logger.WarnContext(ctx, "remember external id", "order_id", o.ID, "error", err)
		}
	}
	metrics.OrdersCreated.Inc()
	s.logger.InfoContext(ctx, "order created",
		"order_id", o.ID, "seller_id", o.SellerID, "items", len(o.Items), "total", o.TotalAmount.StringFixed(2))
	s.publish(ctx, EventOrderCreated, o, OrderCreatedPayload{
		OrderID: o.ID, ExternalID: o.ExternalID, BuyerID: o.BuyerID, SellerID: o.SellerID,
		Items: o.Items, TotalAmount: o.TotalAmount,
	})
	return o, false, nil
}

// replay answers a retried checkout from the index. Misses and index errors
// fall through to the store.
func (s *Service) replay(ctx context.Context, in NewOrder) (Order, bool) {
	if s.idem == nil || in.ExternalID == "" {
		return Order{}, false
	}
	id, ok, err := s.idem.Lookup(ctx, in.BuyerID, in.ExternalID)
	if err != nil {
		s.logger.WarnContext(ctx, "idempotency lookup", "external_id", in.ExternalID, "error", err)
		return Order{}, false
	}
	if !ok {
		return Order{}, false
	}
	o, err := s.store.Get(ctx, id)
	if err != nil || o.BuyerID != in.BuyerID {
		return Order{}, false
	}
	s.logger.InfoContext(ctx, "order replayed from index", "order_id", o.ID, "external_id", in.ExternalID)
	return o, true
}

// Get returns the order to its buyer or seller only.
func (s *Service) Get(ctx context.Context, id, viewerID string) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.BuyerID != viewerID && o.SellerID != viewerID {
		return Order{}, ErrForbidden
	}
	return o, nil
}

func (s *Service) ListForSeller(ctx context.Context, sellerID string, f ListFilter) ([]Order, error) {
	return s.store.ListBySeller(ctx, sellerID, f)
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID string, f ListFilter) ([]Order, error) {
	return s.store.ListByBuyer(ctx, buyerID, f)
}

func (s *Service) StatusCounts(ctx context.Context, sellerID string) (map[Status]int, error) {
	return s.store.StatusCounts(ctx, sellerID)
}

func (s *Service) UpdateStatus(ctx context.Context, id, sellerID string, to Status) (Order, error) {
	o, from, err := s.store.Transition(ctx, id, sellerID, to)
	if err != nil {
		return Order{}, err
	}
	metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()
	s.logger.InfoContext(ctx, "order status changed", "order_id", id, "from", from, "to", to)
	s.publish(ctx, EventOrderStatusChanged, o, OrderStatusChangedPayload{
		OrderID: o.ID, SellerID: o.SellerID, From: from, To: to,
	})
	return o, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id, sellerID string, to PaymentStatus) (Order, error) {
	o, from, err := s.store.UpdatePayment(ctx, id, sellerID, to)
	if err != nil {
		return Order{}, err
	}
	s.logger.InfoContext(ctx, "order payment changed", "order_id", id, "from", from, "to", to)
	s.publish(ctx, EventOrderPaymentChanged, o, OrderPaymentChangedPayload{
		OrderID: o.ID, SellerID: o.SellerID, From: from, To: to,
	})
	return o, nil
}

// publish is best effort: the order is already committed, a lost event only
// delays the analytics snapshot until the next explicit refresh.
func (s *Service) publish(ctx context.Context, eventType string, o Order, payload any) {
	if s.events == nil {
		return
	}
	env, err := NewEnvelope(eventType, s.producer, traceID(ctx), o, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode event", "event_type", eventType, "order_id", o.ID, "error", err)
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode envelope", "event_type", eventType, "error", err)
		return
	}
	headers := []kafkago.Header{
		{Key: "x-event-type", Value: []byte(eventType)},
		{Key: "x-event-version", Value: []byte(strconv.Itoa(EventVersion))},
	}
	otel.GetTextMapPropagator().Inject(ctx, kafkax.NewHeaderCarrier(&headers))
	s.events.Publish(PartitionKey(o.SellerID), b, headers...)
	metrics.EventsPublished.WithLabelValues(eventType).Inc()
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
