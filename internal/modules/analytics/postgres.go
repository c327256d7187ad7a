package analytics

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) StatusTotals(ctx context.Context, storeID uuid.UUID, since time.Time) ([]StatusTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE store_id = $1 AND created_at >= $2
		GROUP BY status`, storeID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []StatusTotal
	for rows.Next() {
		var t StatusTotal
		if err := rows.Scan(&t.Status, &t.Orders, &t.Revenue); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *postgresRepo) DailyRevenue(ctx context.Context, storeID uuid.UUID, since time.Time) ([]DailyRevenue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
		       COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE store_id = $1 AND created_at >= $2 AND status <> 'cancelled'
		GROUP BY day
		ORDER BY day`, storeID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var days []DailyRevenue
	for rows.Next() {
		var d DailyRevenue
		if err := rows.Scan(&d.Date, &d.Revenue, &d.Orders); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *postgresRepo) TopProducts(ctx context.Context, storeID uuid.UUID, since time.Time, limit int) ([]TopProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.product_id, oi.title, SUM(oi.quantity) AS qty, SUM(oi.line_total)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.store_id = $1 AND o.created_at >= $2 AND o.status <> 'cancelled'
		GROUP BY oi.product_id, oi.title
		ORDER BY qty DESC, oi.title
		LIMIT $3`, storeID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var top []TopProduct
	for rows.Next() {
		var p TopProduct
		var pid uuid.NullUUID
		if err := rows.Scan(&pid, &p.Title, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		if pid.Valid {
			id := pid.UUID
			p.ProductID = &id
		}
		top = append(top, p)
	}
	return top, rows.Err()
}
