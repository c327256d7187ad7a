package shipping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) List(ctx context.Context, storeID string) ([]*Rate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT store_id, governorate, price, updated_at
		FROM shipping_rates WHERE store_id=$1 ORDER BY governorate`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rates []*Rate
	for rows.Next() {
		rate := &Rate{}
		if err := rows.Scan(&rate.StoreID, &rate.Governorate, &rate.Price, &rate.UpdatedAt); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, storeID, governorate string) (*Rate, error) {
	rate := &Rate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT store_id, governorate, price, updated_at
		FROM shipping_rates WHERE store_id=$1 AND governorate=$2`, storeID, governorate).
		Scan(&rate.StoreID, &rate.Governorate, &rate.Price, &rate.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRate
	}
	return rate, err
}

// Upsert writes all rates in one transaction.
func (r *postgresRepo) Upsert(ctx context.Context, rates []*Rate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rate := range rates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shipping_rates (store_id, governorate, price, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (store_id, governorate)
			DO UPDATE SET price = EXCLUDED.price, updated_at = NOW()`,
			rate.StoreID, rate.Governorate, rate.Price)
		if err != nil {
			return fmt.Errorf("upsert rate %s: %w", rate.Governorate, err)
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) Delete(ctx context.Context, storeID, governorate string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shipping_rates WHERE store_id=$1 AND governorate=$2`, storeID, governorate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRate
	}
	return nil
}
