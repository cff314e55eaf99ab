package orders

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
)

func product(id, seller string, price string, stock int) catalog.Product {
	return catalog.Product{
		ID: id, SellerID: seller, Name: "name-" + id, Unit: "kg",
		Price: decimal.RequireFromString(price), Stock: stock, IsActive: true,
	}
}

func TestBuildPlan_SnapshotsAndTotal(t *testing.T) {
	products := map[string]catalog.Product{
		"p1": product("p1", "s1", "12.50", 5),
		"p2": product("p2", "s1", "3.00", 10),
	}

	plan, err := BuildPlan("s1", []ItemInput{{ProductID: "p1", Qty: 2}, {ProductID: "p2", Qty: 3}}, products)

	require.NoError(t, err)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, "name-p1", plan.Items[0].Name)
	assert.Equal(t, "kg", plan.Items[0].Unit)
	assert.True(t, plan.Total.Equal(decimal.RequireFromString("34.00")))
	assert.Equal(t, []StockChange{{ProductID: "p1", Qty: 2}, {ProductID: "p2", Qty: 3}}, plan.Changes)
}

func TestBuildPlan_MergesDuplicateLines(t *testing.T) {
	products := map[string]catalog.Product{"p1": product("p1", "s1", "1.00", 5)}

	plan, err := BuildPlan("s1", []ItemInput{{ProductID: "p1", Qty: 2}, {ProductID: "p1", Qty: 2}}, products)

	require.NoError(t, err)
	require.Len(t, plan.Items, 1)
	assert.Equal(t, 4, plan.Items[0].Quantity)

	_, err = BuildPlan("s1", []ItemInput{{ProductID: "p1", Qty: 3}, {ProductID: "p1", Qty: 3}}, products)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestBuildPlan_ReportsEveryShortage(t *testing.T) {
	products := map[string]catalog.Product{
		"p1": product("p1", "s1", "1.00", 1),
		"p2": product("p2", "s1", "1.00", 10),
		"p3": product("p3", "s1", "1.00", 0),
	}

	_, err := BuildPlan("s1", []ItemInput{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 1},
		{ProductID: "p3", Qty: 1},
	}, products)

	var short *StockShortageError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, []StockShortage{
		{ProductID: "p1", Name: "name-p1", Required: 2, Available: 1},
		{ProductID: "p3", Name: "name-p3", Required: 1, Available: 0},
	}, short.Items)
}

func TestBuildPlan_Rejections(t *testing.T) {
	inactive := product("p2", "s1", "1.00", 5)
	inactive.IsActive = false
	products := map[string]catalog.Product{
		"p1": product("p1", "other-seller", "1.00", 5),
		"p2": inactive,
	}

	tests := []struct {
		name  string
		items []ItemInput
		want  error
	}{
		{"missing product", []ItemInput{{ProductID: "nope", Qty: 1}}, ErrProductNotFound},
		{"foreign seller", []ItemInput{{ProductID: "p1", Qty: 1}}, ErrValidation},
		{"inactive product", []ItemInput{{ProductID: "p2", Qty: 1}}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPlan("s1", tt.items, products)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
