package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrForbidden      = errors.New("product belongs to another seller")
	ErrInvalidProduct = errors.New("invalid product")
)

type Product struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
	SalesCount  int             `json:"sales_count"` // informational, bumped on order creation
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductInput is the writable part of a product, used for create and update.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Category == "" {
		in.Category = "other"
	}
	if strings.TrimSpace(in.Unit) == "" {
		in.Unit = "piece"
	}
}

func (in ProductInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}

// active is the flag for a new product; unset means listed.
func (in ProductInput) active() bool {
	if in.IsActive == nil {
		return true
	}
	return *in.IsActive
}

// Stats summarizes a seller's catalog for the dashboard.
type Stats struct {
	Total      int             `json:"total"`
	Active     int             `json:"active"`
	LowStock   int             `json:"low_stock"`
	OutOfStock int             `json:"out_of_stock"`
	StockValue decimal.Decimal `json:"stock_value"`
	Threshold  int             `json:"low_stock_threshold"`
}

type TopProduct struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	SalesCount int             `json:"sales_count"`
}

type CategoryCount struct {
	Category   string `json:"category"`
	Products   int    `json:"products"`
	SalesCount int    `json:"sales_count"`
}

type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 100 {
		return 50
	}
	return f.Limit
}
