package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Effective(ctx context.Context, storeID uuid.UUID) (Values, error) {
	// Platform rows sort first so store rows overwrite them.
	return r.query(ctx, `
		SELECT key, value FROM settings
		WHERE store_id = $1 OR store_id IS NULL
		ORDER BY (store_id IS NOT NULL), key`, storeID)
}

func (r *postgresRepo) Platform(ctx context.Context) (Values, error) {
	return r.query(ctx, `SELECT key, value FROM settings WHERE store_id IS NULL`)
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) (Values, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	values := Values{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, storeID *uuid.UUID, values Values) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for k, v := range values {
		if storeID == nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO settings (store_id, key, value) VALUES (NULL, $1, $2)
				ON CONFLICT (key) WHERE store_id IS NULL
				DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, k, v)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO settings (store_id, key, value) VALUES ($1, $2, $3)
				ON CONFLICT (store_id, key) WHERE store_id IS NOT NULL
				DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, *storeID, k, v)
		}
		if err != nil {
			return fmt.Errorf("upsert setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}
