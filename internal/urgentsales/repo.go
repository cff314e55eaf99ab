package urgentsales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	DB  *pgxpool.Pool
	Now func() time.Time
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

const columns = `id, seller_id, product_id, name, original_price, discount_price, quantity, expires_at, status, created_at`

func scan(row pgx.Row) (UrgentSale, error) {
	var u UrgentSale
	err := row.Scan(&u.ID, &u.SellerID, &u.ProductID, &u.Name, &u.OriginalPrice, &u.DiscountPrice,
		&u.Quantity, &u.ExpiresAt, &u.Status, &u.CreatedAt)
	return u, err
}

func (r *Repo) collect(rows pgx.Rows) ([]UrgentSale, error) {
	defer rows.Close()
	now := r.now()
	out := []UrgentSale{}
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		u.Status = u.EffectiveStatus(now)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, sellerID string, in Input) (UrgentSale, error) {
	now := r.now()
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(now); err != nil {
		return UrgentSale{}, err
	}
	if in.ProductID != nil {
		if err := r.checkProduct(ctx, *in.ProductID, sellerID); err != nil {
			return UrgentSale{}, err
		}
	}
	u, err := scan(r.DB.QueryRow(ctx, `
		INSERT INTO urgent_sales (id, seller_id, product_id, name, original_price, discount_price, quantity, expires_at, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'active',$9)
		RETURNING `+columns,
		uuid.NewString(), sellerID, in.ProductID, in.Name, in.OriginalPrice, in.DiscountPrice,
		in.Quantity, in.ExpiresAt.UTC(), now))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		// product deleted after the check
		return UrgentSale{}, fmt.Errorf("%w: %s", ErrProductNotFound, *in.ProductID)
	}
	return u, err
}

// checkProduct allows linking only the seller's own products.
func (r *Repo) checkProduct(ctx context.Context, productID, sellerID string) error {
	var owner string
	err := r.DB.QueryRow(ctx, `SELECT seller_id FROM products WHERE id=$1`, productID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return err
	}
	if owner != sellerID {
		return fmt.Errorf("%w: product %s belongs to another seller", ErrInvalid, productID)
	}
	return nil
}

// ListActive returns unexpired active listings across sellers, soonest expiry first.
func (r *Repo) ListActive(ctx context.Context, limit int) ([]UrgentSale, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx, `
		SELECT `+columns+` FROM urgent_sales
		WHERE status = 'active' AND expires_at > $1 AND quantity > 0
		ORDER BY expires_at
		LIMIT $2`, r.now(), limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *Repo) ListBySeller(ctx context.Context, sellerID string) ([]UrgentSale, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+columns+` FROM urgent_sales
		WHERE seller_id = $1
		ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Counts treats active listings past expiry as expired.
func (r *Repo) Counts(ctx context.Context, sellerID string) (Counts, error) {
	var c Counts
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active' AND expires_at > $2),
		       COUNT(*) FILTER (WHERE status = 'expired' OR (status = 'active' AND expires_at <= $2)),
		       COUNT(*) FILTER (WHERE status = 'sold')
		FROM urgent_sales WHERE seller_id = $1`, sellerID, r.now()).
		Scan(&c.Total, &c.Active, &c.Expired, &c.Sold)
	return c, err
}
