package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-marketplace-orders/internal/metrics"
)

// Sale is one revenue-counting order: not cancelled, not refunded.
type Sale struct {
	OrderID   string
	CreatedAt time.Time
	Amount    decimal.Decimal
}

type OrderReader interface {
	Sales(ctx context.Context, sellerID string, w Window) ([]Sale, error)
	Revenue(ctx context.Context, sellerID string, w Window) (decimal.Decimal, int, error)
	StatusCounts(ctx context.Context, sellerID string, w Window) (map[string]int, error)
}

type Aggregator struct {
	orders OrderReader
	logger *slog.Logger
	// DemoFallback answers with a DemoReport when the store fails instead of
	// returning the error.
	DemoFallback bool
	Now          func() time.Time
}

func NewAggregator(orders OrderReader, logger *slog.Logger, demoFallback bool) *Aggregator {
	return &Aggregator{orders: orders, logger: logger, DemoFallback: demoFallback, Now: time.Now}
}

func (a *Aggregator) now() time.Time { return a.Now().UTC() }

// SalesReport compares the current period with the previous one for a seller.
// A window without sales yields a DemoReport tagged no_orders.
func (a *Aggregator) SalesReport(ctx context.Context, sellerID string, p Period) (Report, error) {
	now := a.now()
	cur, prev := Windows(p, now)
	base := Summary{SellerID: sellerID, Period: p, Current: cur, Previous: prev, GeneratedAt: now}

	sales, err := a.orders.Sales(ctx, sellerID, cur)
	if err != nil {
		return a.unavailable(ctx, base, err)
	}
	if len(sales) == 0 {
		return a.demo(base, ReasonNoOrders), nil
	}
	prevRevenue, _, err := a.orders.Revenue(ctx, sellerID, prev)
	if err != nil {
		return a.unavailable(ctx, base, err)
	}

	base.Series = Bucketize(p, cur, sales)
	base.CurrentRevenue = decimal.Zero
	for _, s := range sales {
		base.CurrentRevenue = base.CurrentRevenue.Add(s.Amount)
	}
	base.PreviousRevenue = prevRevenue
	base.Orders = len(sales)
	base.Growth = Growth(base.CurrentRevenue, prevRevenue)

	metrics.ReportsServed.WithLabelValues(string(SourceDatabase), "").Inc()
	return MeasuredReport{Summary: base}, nil
}

func (a *Aggregator) unavailable(ctx context.Context, base Summary, err error) (Report, error) {
	if !a.DemoFallback {
		return nil, err
	}
	a.logger.WarnContext(ctx, "sales report served from demo data", "seller_id", base.SellerID, "error", err)
	return a.demo(base, ReasonStoreUnavailable), nil
}

func (a *Aggregator) demo(base Summary, reason DemoReason) DemoReport {
	series, prev := DemoSeries(base.SellerID, base.Period, base.Current)
	base.Series = series
	base.CurrentRevenue = decimal.Zero
	base.Orders = 0
	for _, b := range series {
		base.CurrentRevenue = base.CurrentRevenue.Add(b.Revenue)
		base.Orders += b.Orders
	}
	base.PreviousRevenue = prev
	base.Growth = Growth(base.CurrentRevenue, prev)

	metrics.ReportsServed.WithLabelValues(string(SourceDemo), string(reason)).Inc()
	return DemoReport{Summary: base, Reason: reason}
}

type OrderStats struct {
	SellerID          string          `json:"seller_id"`
	Period            Period          `json:"period"`
	Current           Window          `json:"current"`
	StatusCounts      map[string]int  `json:"status_counts"`
	TotalOrders       int             `json:"total_orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	PreviousRevenue   decimal.Decimal `json:"previous_revenue"`
	Growth            float64         `json:"growth"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// OrderStats reports status counts and revenue for the current period.
// It always reflects stored data; store errors are returned.
func (a *Aggregator) OrderStats(ctx context.Context, sellerID string, p Period) (OrderStats, error) {
	cur, prev := Windows(p, a.now())

	counts, err := a.orders.StatusCounts(ctx, sellerID, cur)
	if err != nil {
		return OrderStats{}, err
	}
	revenue, paid, err := a.orders.Revenue(ctx, sellerID, cur)
	if err != nil {
		return OrderStats{}, err
	}
	prevRevenue, _, err := a.orders.Revenue(ctx, sellerID, prev)
	if err != nil {
		return OrderStats{}, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return OrderStats{
		SellerID:          sellerID,
		Period:            p,
		Current:           cur,
		StatusCounts:      counts,
		TotalOrders:       total,
		Revenue:           revenue,
		PreviousRevenue:   prevRevenue,
		Growth:            Growth(revenue, prevRevenue),
		AverageOrderValue: Average(revenue, paid),
	}, nil
}
