package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNoSnapshot = errors.New("no snapshot for seller")

// Snapshot is a materialized summary of a seller's sales. It is only as
// fresh as GeneratedAt; live orders do not update it.
type Snapshot struct {
	SellerID          string           `json:"seller_id"`
	TotalOrders       int              `json:"total_orders"`
	DeliveredOrders   int              `json:"delivered_orders"`
	CancelledOrders   int              `json:"cancelled_orders"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	DistinctBuyers    int              `json:"distinct_buyers"`
	Last30DaysRevenue decimal.Decimal  `json:"last_30_days_revenue"`
	TopProducts       []ProductRevenue `json:"top_products"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

type ProductRevenue struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type SnapshotStore interface {
	// Load returns ErrNoSnapshot when the seller has none yet.
	Load(ctx context.Context, sellerID string) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	Compute(ctx context.Context, sellerID string, now time.Time) (Snapshot, error)
}

type Snapshotter struct {
	store  SnapshotStore
	logger *slog.Logger
	Now    func() time.Time
}

func NewSnapshotter(store SnapshotStore, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{store: store, logger: logger, Now: time.Now}
}

// Get returns the stored snapshot, building it on first access.
func (s *Snapshotter) Get(ctx context.Context, sellerID string) (Snapshot, error) {
	snap, err := s.store.Load(ctx, sellerID)
	if errors.Is(err, ErrNoSnapshot) {
		return s.Refresh(ctx, sellerID)
	}
	return snap, err
}

// Refresh regenerates the snapshot from live orders and stores it.
func (s *Snapshotter) Refresh(ctx context.Context, sellerID string) (Snapshot, error) {
	snap, err := s.store.Compute(ctx, sellerID, s.Now().UTC())
	if err != nil {
		return Snapshot{}, fmt.Errorf("compute snapshot: %w", err)
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.DebugContext(ctx, "seller snapshot refreshed", "seller_id", sellerID, "orders", snap.TotalOrders)
	return snap, nil
}
