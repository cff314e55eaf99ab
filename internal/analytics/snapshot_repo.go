package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SnapshotRepo struct{ DB *pgxpool.Pool }

func (r *SnapshotRepo) Load(ctx context.Context, sellerID string) (Snapshot, error) {
	var s Snapshot
	err := r.DB.QueryRow(ctx, `SELECT payload FROM seller_sales_snapshots WHERE seller_id=$1`, sellerID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	return s, err
}

func (r *SnapshotRepo) Save(ctx context.Context, s Snapshot) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO seller_sales_snapshots (seller_id, payload, generated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (seller_id) DO UPDATE SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at`,
		s.SellerID, s, s.GeneratedAt)
	return err
}

func (r *SnapshotRepo) Compute(ctx context.Context, sellerID string, now time.Time) (Snapshot, error) {
	s := Snapshot{SellerID: sellerID, GeneratedAt: now, TopProducts: []ProductRevenue{}}
	var revenueOrders int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total_amount) FILTER (WHERE `+countsTowardRevenue+`), 0),
		       COUNT(*) FILTER (WHERE `+countsTowardRevenue+`),
		       COUNT(DISTINCT buyer_id),
		       COALESCE(SUM(total_amount) FILTER (WHERE `+countsTowardRevenue+` AND created_at >= $2), 0)
		FROM orders WHERE seller_id = $1`, sellerID, now.AddDate(0, 0, -30)).
		Scan(&s.TotalOrders, &s.DeliveredOrders, &s.CancelledOrders, &s.TotalRevenue,
			&revenueOrders, &s.DistinctBuyers, &s.Last30DaysRevenue)
	if err != nil {
		return Snapshot{}, err
	}
	s.AverageOrderValue = Average(s.TotalRevenue, revenueOrders)

	rows, err := r.DB.Query(ctx, `
		SELECT oi.product_id, MAX(oi.name), SUM(oi.quantity), SUM(oi.price * oi.quantity)
		FROM order_items oi JOIN orders o ON o.id = oi.order_id
		WHERE o.seller_id = $1 AND o.status <> 'cancelled' AND o.payment_status <> 'refunded'
		GROUP BY oi.product_id
		ORDER BY 4 DESC
		LIMIT 5`, sellerID)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		p := ProductRevenue{Revenue: decimal.Zero}
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity, &p.Revenue); err != nil {
			return Snapshot{}, err
		}
		s.TopProducts = append(s.TopProducts, p)
	}
	return s, rows.Err()
}
