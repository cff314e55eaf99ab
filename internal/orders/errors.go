package orders

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrForbidden         = errors.New("order belongs to another seller")
	ErrValidation        = errors.New("invalid order request")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type StockShortage struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// StockShortageError lists every line item that could not be covered.
type StockShortageError struct {
	Items []StockShortage
}

func (e *StockShortageError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (required %d, available %d)", it.ProductID, it.Required, it.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }

// TransitionError reports a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("order is %s and accepts no further changes", e.From)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
