package billing

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO billing_events (event_id, event_type) VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING`, eventID, eventType)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postgresRepo) Forget(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM billing_events WHERE event_id=$1`, eventID)
	return err
}
