package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
)

// lockProducts selects the requested rows FOR UPDATE in id order so two
// checkouts touching the same products always lock in the same sequence.
func lockProducts(ctx context.Context, tx pgx.Tx, items []ItemInput) (map[string]catalog.Product, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	rows, err := tx.Query(ctx, `
		SELECT id, seller_id, name, description, price, unit, stock, category,
		       image_url, is_active, sales_count, created_at, updated_at
		FROM products WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]catalog.Product, len(ids))
	for rows.Next() {
		p, err := catalog.ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// takeStock applies the plan's decrements. The stock guard in the WHERE
// clause is a second line behind the row lock.
func takeStock(ctx context.Context, tx pgx.Tx, changes []StockChange) error {
	for _, c := range changes {
		ct, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $2, sales_count = sales_count + $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2`, c.ProductID, c.Qty)
		if err != nil {
			return fmt.Errorf("decrement stock %s: %w", c.ProductID, err)
		}
		if ct.RowsAffected() != 1 {
			return &StockShortageError{Items: []StockShortage{{ProductID: c.ProductID, Required: c.Qty}}}
		}
	}
	return nil
}

// restock gives a cancelled order's quantities back to products that still
// exist. Rows are locked in id order first, the same order lockProducts uses.
func restock(ctx context.Context, tx pgx.Tx, orderID string) error {
	if _, err := tx.Exec(ctx, `
		SELECT p.id FROM products p
		WHERE p.id IN (SELECT product_id FROM order_items WHERE order_id = $1)
		ORDER BY p.id
		FOR UPDATE`, orderID); err != nil {
		return fmt.Errorf("lock products for order %s: %w", orderID, err)
	}
	_, err := tx.Exec(ctx, `
		UPDATE products p
		SET stock = p.stock + oi.quantity,
		    sales_count = GREATEST(p.sales_count - oi.quantity, 0),
		    updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND p.id = oi.product_id`, orderID)
	if err != nil {
		return fmt.Errorf("restock order %s: %w", orderID, err)
	}
	return nil
}
