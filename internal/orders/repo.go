package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-marketplace-orders/internal/postgres"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, COALESCE(external_id, ''), buyer_id, seller_id, shipping_address, phone,
	payment_method, payment_status, total_amount, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ExternalID, &o.BuyerID, &o.SellerID, &o.ShippingAddress, &o.Phone,
		&o.PaymentMethod, &o.PaymentStatus, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create places the order in one transaction: lock products, check every
// line, decrement stock, insert the order. Any failure rolls back all of it.
// A repeated external_id for the same buyer returns the stored order with
// existed=true.
func (r *Repo) Create(ctx context.Context, in NewOrder) (o Order, existed bool, err error) {
	if err := in.Validate(); err != nil {
		return Order{}, false, err
	}
	if in.ExternalID != "" {
		o, err := r.byExternalID(ctx, in.BuyerID, in.ExternalID)
		if err == nil {
			return o, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Order{}, false, err
		}
	}

	items := MergeItems(in.Items)
	now := time.Now().UTC()
	o = Order{
		ID:              uuid.NewString(),
		ExternalID:      in.ExternalID,
		BuyerID:         in.BuyerID,
		SellerID:        in.SellerID,
		ShippingAddress: in.ShippingAddress,
		Phone:           in.Phone,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		products, err := lockProducts(ctx, tx, items)
		if err != nil {
			return err
		}
		plan, err := BuildPlan(in.SellerID, items, products)
		if err != nil {
			return err
		}
		if err := takeStock(ctx, tx, plan.Changes); err != nil {
			return err
		}
		o.Items, o.TotalAmount = plan.Items, plan.Total

		var ext *string
		if o.ExternalID != "" {
			ext = &o.ExternalID
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO orders (id, external_id, buyer_id, seller_id, shipping_address, phone,
				payment_method, payment_status, total_amount, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
			o.ID, ext, o.BuyerID, o.SellerID, o.ShippingAddress, o.Phone,
			o.PaymentMethod, o.PaymentStatus, o.TotalAmount, o.Status, now); err != nil {
			return err
		}
		for _, li := range o.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, name, unit, quantity, price)
				VALUES ($1,$2,$3,$4,$5,$6)`,
				o.ID, li.ProductID, li.Name, li.Unit, li.Quantity, li.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) && in.ExternalID != "" {
		// lost a race with a concurrent request carrying the same external_id
		o, err := r.byExternalID(ctx, in.BuyerID, in.ExternalID)
		return o, err == nil, err
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, false, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repo) byExternalID(ctx context.Context, buyerID, externalID string) (Order, error) {
	var id string
	err := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE buyer_id=$1 AND external_id=$2`, buyerID, externalID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return r.Get(ctx, id)
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	out := []Order{o}
	if err := r.attachItems(ctx, out); err != nil {
		return Order{}, err
	}
	return out[0], nil
}

func (r *Repo) ListBySeller(ctx context.Context, sellerID string, f ListFilter) ([]Order, error) {
	return r.list(ctx, `seller_id = $1`, sellerID, f)
}

func (r *Repo) ListByBuyer(ctx context.Context, buyerID string, f ListFilter) ([]Order, error) {
	return r.list(ctx, `buyer_id = $1`, buyerID, f)
}

func (r *Repo) list(ctx context.Context, where, party string, f ListFilter) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE `+where+` AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, party, string(f.Status), f.limit(), f.Offset)
	if err != nil {
		return nil, err
	}
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads line items for all orders with one query.
func (r *Repo) attachItems(ctx context.Context, batch []Order) error {
	if len(batch) == 0 {
		return nil
	}
	idx := make(map[string]int, len(batch))
	ids := make([]string, 0, len(batch))
	for i := range batch {
		batch[i].Items = []LineItem{}
		idx[batch[i].ID] = i
		ids = append(ids, batch[i].ID)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, name, unit, quantity, price
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var li LineItem
		if err := rows.Scan(&orderID, &li.ProductID, &li.Name, &li.Unit, &li.Quantity, &li.Price); err != nil {
			return err
		}
		i := idx[orderID]
		batch[i].Items = append(batch[i].Items, li)
	}
	return rows.Err()
}

// lockOrder fetches the order's owner and state under a row lock.
func lockOrder(ctx context.Context, tx pgx.Tx, id, sellerID string) (Status, PaymentStatus, error) {
	var owner string
	var st Status
	var ps PaymentStatus
	err := tx.QueryRow(ctx, `SELECT seller_id, status, payment_status FROM orders WHERE id=$1 FOR UPDATE`, id).
		Scan(&owner, &st, &ps)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	if owner != sellerID {
		return "", "", ErrForbidden
	}
	return st, ps, nil
}

// Transition moves the order to `to` when the seller owns it and the status
// table allows it. Cancelling puts the items back in stock.
func (r *Repo) Transition(ctx context.Context, id, sellerID string, to Status) (Order, Status, error) {
	if !to.Valid() {
		return Order{}, "", fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	var from Status
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		var err error
		from, _, err = lockOrder(ctx, tx, id, sellerID)
		if err != nil {
			return err
		}
		if !CanTransition(from, to) {
			return &TransitionError{From: from, To: to}
		}
		if to == StatusCancelled {
			if err := restock(ctx, tx, id); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, to)
		return err
	})
	if err != nil {
		return Order{}, "", err
	}
	o, err := r.Get(ctx, id)
	return o, from, err
}

func (r *Repo) UpdatePayment(ctx context.Context, id, sellerID string, to PaymentStatus) (Order, PaymentStatus, error) {
	var from PaymentStatus
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		st, cur, err := lockOrder(ctx, tx, id, sellerID)
		if err != nil {
			return err
		}
		from = cur
		if !PaymentAllowed(st, from, to) {
			return fmt.Errorf("%w: payment cannot move from %s to %s on a %s order", ErrInvalidTransition, from, to, st)
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET payment_status=$2, updated_at=NOW() WHERE id=$1`, id, to)
		return err
	})
	if err != nil {
		return Order{}, "", err
	}
	o, err := r.Get(ctx, id)
	return o, from, err
}

// StatusCounts returns the seller's order count per status; every status is present.
func (r *Repo) StatusCounts(ctx context.Context, sellerID string) (map[Status]int, error) {
	out := make(map[Status]int, len(statusOrder))
	for _, s := range statusOrder {
		out[s] = 0
	}
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM orders WHERE seller_id=$1 GROUP BY status`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
