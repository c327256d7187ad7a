package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, store_id, order_number, customer_name, customer_email, customer_phone, address,
	subtotal, shipping, total, currency, payment_method, payment_reference, status, notes, created_at, updated_at`

// CreateOrder decrements stock, then inserts the order and all its items
// inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range o.Items {
		if item.ProductID == nil {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND store_id = $3 AND stock >= $1`,
			item.Quantity, *item.ProductID, o.StoreID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%s: %w", item.Title, ErrInsufficientStock)
		}
	}

	address, err := json.Marshal(o.Address)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, store_id, order_number, customer_name, customer_email, customer_phone, address,
		   subtotal, shipping, total, currency, payment_method, payment_reference, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.StoreID, o.OrderNumber, o.CustomerName, o.CustomerEmail, o.CustomerPhone, address,
		o.Subtotal, o.Shipping, o.Total, o.Currency, o.PaymentMethod, o.PaymentReference, o.Status, o.Notes)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, title, unit_price, quantity, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, o.ID, item.ProductID, item.Title, item.UnitPrice, item.Quantity, item.LineTotal)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrder(ctx context.Context, storeID, id string) (*Order, error) {
	oid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 AND store_id=$2`, oid, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) ListOrders(ctx context.Context, storeID string, status OrderStatus) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE store_id=$1`
	args := []interface{}{storeID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, o *Order, next OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND store_id=$3 AND status=$4`,
		next, o.ID, o.StoreID, o.Status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusConflict
	}

	if next == StatusCancelled {
		_, err = tx.ExecContext(ctx, `
			UPDATE products p SET stock = p.stock + i.quantity, updated_at = NOW()
			FROM order_items i
			WHERE i.order_id = $1 AND i.product_id = p.id`, o.ID)
		if err != nil {
			return fmt.Errorf("restock cancelled order: %w", err)
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) SetPaymentReference(ctx context.Context, id uuid.UUID, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_reference=$1, updated_at=NOW() WHERE id=$2`, ref, id)
	return err
}

func (r *postgresRepo) ProductSnapshots(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ProductSnapshot, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, price, stock FROM products
		WHERE store_id = $1 AND id = ANY($2::uuid[])`, storeID, pq.StringArray(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]ProductSnapshot, len(ids))
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*Order, error) {
	o := &Order{}
	var address []byte
	err := row.Scan(&o.ID, &o.StoreID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&address, &o.Subtotal, &o.Shipping, &o.Total, &o.Currency, &o.PaymentMethod, &o.PaymentReference,
		&o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &o.Address); err != nil {
		return nil, fmt.Errorf("decode address of order %s: %w", o.ID, err)
	}
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, title, unit_price, quantity, line_total, created_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at ASC, title ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		var productID uuid.NullUUID
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.Title,
			&item.UnitPrice, &item.Quantity, &item.LineTotal, &item.CreatedAt); err != nil {
			return nil, err
		}
		if productID.Valid {
			id := productID.UUID
			item.ProductID = &id
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
