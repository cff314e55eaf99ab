package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
)

// StockChange is one decrement to apply inside the creating transaction.
type StockChange struct {
	ProductID string
	Qty       int
}

type Plan struct {
	Items   []LineItem
	Total   decimal.Decimal
	Changes []StockChange
}

// MergeItems folds repeated products into one line, keeping first-seen order.
func MergeItems(items []ItemInput) []ItemInput {
	idx := make(map[string]int, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			out[i].Qty += it.Qty
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

// BuildPlan checks every requested item against the locked product rows and
// returns the snapshot lines plus stock decrements. Nothing is applied unless
// all items pass, so a failed plan leaves stock untouched.
func BuildPlan(sellerID string, items []ItemInput, products map[string]catalog.Product) (Plan, error) {
	items = MergeItems(items)
	plan := Plan{
		Items:   make([]LineItem, 0, len(items)),
		Total:   decimal.Zero,
		Changes: make([]StockChange, 0, len(items)),
	}

	var short []StockShortage
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return Plan{}, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
		}
		if p.SellerID != sellerID {
			return Plan{}, fmt.Errorf("%w: product %s is not sold by %s", ErrValidation, p.ID, sellerID)
		}
		if !p.IsActive {
			return Plan{}, fmt.Errorf("%w: product %s is not available", ErrValidation, p.ID)
		}
		if it.Qty > p.Stock {
			short = append(short, StockShortage{ProductID: p.ID, Name: p.Name, Required: it.Qty, Available: p.Stock})
			continue
		}

		li := LineItem{ProductID: p.ID, Name: p.Name, Unit: p.Unit, Quantity: it.Qty, Price: p.Price}
		plan.Items = append(plan.Items, li)
		plan.Total = plan.Total.Add(li.Subtotal())
		plan.Changes = append(plan.Changes, StockChange{ProductID: p.ID, Qty: it.Qty})
	}
	if len(short) > 0 {
		return Plan{}, &StockShortageError{Items: short}
	}
	return plan, nil
}
