package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validNewOrder() NewOrder {
	return NewOrder{
		BuyerID:         "b1",
		SellerID:        "s1",
		Items:           []ItemInput{{ProductID: "p1", Qty: 1}},
		ShippingAddress: ShippingAddress{Street: "1 Main St", City: "Pune"},
		Phone:           "555-0100",
		PaymentMethod:   PaymentCOD,
	}
}

func TestNewOrder_Validate(t *testing.T) {
	assert.NoError(t, validNewOrder().Validate())

	tests := []struct {
		name   string
		mutate func(*NewOrder)
	}{
		{"no buyer", func(n *NewOrder) { n.BuyerID = "" }},
		{"no seller", func(n *NewOrder) { n.SellerID = "" }},
		{"self order", func(n *NewOrder) { n.SellerID = n.BuyerID }},
		{"no items", func(n *NewOrder) { n.Items = nil }},
		{"zero quantity", func(n *NewOrder) { n.Items[0].Qty = 0 }},
		{"blank product", func(n *NewOrder) { n.Items[0].ProductID = "" }},
		{"no city", func(n *NewOrder) { n.ShippingAddress.City = " " }},
		{"no phone", func(n *NewOrder) { n.Phone = "" }},
		{"bad payment method", func(n *NewOrder) { n.PaymentMethod = "barter" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNewOrder()
			tt.mutate(&n)
			assert.ErrorIs(t, n.Validate(), ErrValidation)
		})
	}
}

func TestLineItem_Subtotal(t *testing.T) {
	li := LineItem{Quantity: 3, Price: decimal.RequireFromString("2.35")}
	assert.Equal(t, "7.05", li.Subtotal().StringFixed(2))
}

func TestListFilter_Limit(t *testing.T) {
	assert.Equal(t, 20, ListFilter{}.limit())
	assert.Equal(t, 20, ListFilter{Limit: 1000}.limit())
	assert.Equal(t, 5, ListFilter{Limit: 5}.limit())
}
