package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo reads revenue figures straight from the orders table.
type Repo struct{ DB *pgxpool.Pool }

const countsTowardRevenue = `status <> 'cancelled' AND payment_status <> 'refunded'`

func (r *Repo) Sales(ctx context.Context, sellerID string, w Window) ([]Sale, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, created_at, total_amount FROM orders
		WHERE seller_id = $1 AND created_at >= $2 AND created_at < $3 AND `+countsTowardRevenue+`
		ORDER BY created_at`, sellerID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Sale{}
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.OrderID, &s.CreatedAt, &s.Amount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) Revenue(ctx context.Context, sellerID string, w Window) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM orders
		WHERE seller_id = $1 AND created_at >= $2 AND created_at < $3 AND `+countsTowardRevenue,
		sellerID, w.Start, w.End).Scan(&total, &n)
	return total, n, err
}

// StatusCounts counts every order in w by status; all five statuses are present.
func (r *Repo) StatusCounts(ctx context.Context, sellerID string, w Window) (map[string]int, error) {
	out := map[string]int{"pending": 0, "processing": 0, "shipped": 0, "delivered": 0, "cancelled": 0}
	rows, err := r.DB.Query(ctx, `
		SELECT status, COUNT(*) FROM orders
		WHERE seller_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY status`, sellerID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
