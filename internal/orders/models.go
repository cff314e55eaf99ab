package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a ShippingAddress) complete() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.City) != ""
}

// LineItem is frozen at checkout; later product edits do not touch it.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"external_id,omitempty"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	Items           []LineItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Phone           string          `json:"phone"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"quantity"`
}

// NewOrder is a checkout request. BuyerID comes from the caller's identity.
type NewOrder struct {
	ExternalID      string          `json:"external_id,omitempty"`
	BuyerID         string          `json:"-"`
	SellerID        string          `json:"seller_id"`
	Items           []ItemInput     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Phone           string          `json:"phone"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
}

func (n NewOrder) Validate() error {
	switch {
	case n.BuyerID == "":
		return fmt.Errorf("%w: buyer is required", ErrValidation)
	case n.SellerID == "":
		return fmt.Errorf("%w: seller_id is required", ErrValidation)
	case n.BuyerID == n.SellerID:
		return fmt.Errorf("%w: sellers cannot order from themselves", ErrValidation)
	case len(n.Items) == 0:
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	case !n.ShippingAddress.complete():
		return fmt.Errorf("%w: shipping address needs street and city", ErrValidation)
	case strings.TrimSpace(n.Phone) == "":
		return fmt.Errorf("%w: phone is required", ErrValidation)
	case !n.PaymentMethod.Valid():
		return fmt.Errorf("%w: unsupported payment method %q", ErrValidation, n.PaymentMethod)
	}
	for _, it := range n.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: item without product_id", ErrValidation)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: invalid quantity for product %s", ErrValidation, it.ProductID)
		}
	}
	return nil
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 100 {
		return 20
	}
	return f.Limit
}
