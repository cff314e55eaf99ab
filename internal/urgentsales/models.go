// Package urgentsales stores time-boxed discounted listings.
package urgentsales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("urgent sale not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalid         = errors.New("invalid urgent sale")
)

type Status string

const (
	StatusActive  Status = "active"
	StatusSold    Status = "sold"
	StatusExpired Status = "expired"
)

type UrgentSale struct {
	ID            string          `json:"id"`
	SellerID      string          `json:"seller_id"`
	ProductID     *string         `json:"product_id,omitempty"`
	Name          string          `json:"name"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EffectiveStatus reports expired for active listings past their expiry.
func (u UrgentSale) EffectiveStatus(now time.Time) Status {
	if u.Status == StatusActive && !u.ExpiresAt.After(now) {
		return StatusExpired
	}
	return u.Status
}

// DiscountPercent is rounded to a whole percent.
func (u UrgentSale) DiscountPercent() int64 {
	if !u.OriginalPrice.IsPositive() {
		return 0
	}
	return u.OriginalPrice.Sub(u.DiscountPrice).
		Div(u.OriginalPrice).
		Mul(decimal.NewFromInt(100)).
		Round(0).IntPart()
}

type Input struct {
	ProductID     *string         `json:"product_id,omitempty"`
	Name          string          `json:"name"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	Quantity      int             `json:"quantity"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

func (in Input) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case !in.OriginalPrice.IsPositive():
		return fmt.Errorf("%w: original_price must be positive", ErrInvalid)
	case in.DiscountPrice.IsNegative():
		return fmt.Errorf("%w: discount_price must not be negative", ErrInvalid)
	case !in.DiscountPrice.LessThan(in.OriginalPrice):
		return fmt.Errorf("%w: discount_price must be below original_price", ErrInvalid)
	case in.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	case !in.ExpiresAt.After(now):
		return fmt.Errorf("%w: expires_at must be in the future", ErrInvalid)
	}
	return nil
}

type Counts struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
	Sold    int `json:"sold"`
}
