package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, seller_id, name, description, price, unit, stock, category,
	image_url, is_active, sales_count, created_at, updated_at`

// ScanProduct reads one row selected with productColumns.
func ScanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Unit, &p.Stock,
		&p.Category, &p.ImageURL, &p.IsActive, &p.SalesCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, sellerID string, in ProductInput) (Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	now := time.Now().UTC()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products (id, seller_id, name, description, price, unit, stock, category, image_url, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
		RETURNING `+productColumns,
		uuid.NewString(), sellerID, in.Name, in.Description, in.Price, in.Unit, in.Stock,
		in.Category, in.ImageURL, in.active(), now)
	return ScanProduct(row)
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := ScanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) owned(ctx context.Context, id, sellerID string) error {
	var owner string
	err := r.DB.QueryRow(ctx, `SELECT seller_id FROM products WHERE id=$1`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != sellerID {
		return ErrForbidden
	}
	return nil
}

// Update replaces the writable fields; a nil IsActive keeps the stored flag.
func (r *Repo) Update(ctx context.Context, id, sellerID string, in ProductInput) (Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	if err := r.owned(ctx, id, sellerID); err != nil {
		return Product{}, err
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE products SET name=$3, description=$4, price=$5, unit=$6, stock=$7, category=$8,
			image_url=$9, is_active=COALESCE($10, is_active), updated_at=NOW()
		WHERE id=$1 AND seller_id=$2
		RETURNING `+productColumns,
		id, sellerID, in.Name, in.Description, in.Price, in.Unit, in.Stock, in.Category, in.ImageURL, in.IsActive)
	p, err := ScanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) Delete(ctx context.Context, id, sellerID string) error {
	if err := r.owned(ctx, id, sellerID); err != nil {
		return err
	}
	_, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1 AND seller_id=$2`, id, sellerID)
	return err
}

// List returns active products for buyers.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active
		  AND ($1 = '' OR category = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, f.Category, f.Search, f.limit(), f.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) ListBySeller(ctx context.Context, sellerID string, f ListFilter) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE seller_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, sellerID, f.Category, f.limit(), f.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Stats counts a seller's products; low stock means 0 < stock <= threshold.
func (r *Repo) Stats(ctx context.Context, sellerID string, threshold int) (Stats, error) {
	s := Stats{Threshold: threshold}
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE stock > 0 AND stock <= $2),
		       COUNT(*) FILTER (WHERE stock = 0),
		       COALESCE(SUM(price * stock), 0)
		FROM products WHERE seller_id = $1`, sellerID, threshold).
		Scan(&s.Total, &s.Active, &s.LowStock, &s.OutOfStock, &s.StockValue)
	return s, err
}

func (r *Repo) TopSelling(ctx context.Context, sellerID string, limit int) ([]TopProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, category, price, stock, sales_count
		FROM products WHERE seller_id = $1
		ORDER BY sales_count DESC, name
		LIMIT $2`, sellerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopProduct{}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.SalesCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CategoryBreakdown(ctx context.Context, sellerID string) ([]CategoryCount, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(sales_count), 0)
		FROM products WHERE seller_id = $1
		GROUP BY category
		ORDER BY COUNT(*) DESC, category`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Products, &c.SalesCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
