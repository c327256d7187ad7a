package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/database"
	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const storeColumns = `id, owner_id, slug, name, description, template, logo_url, phone, status,
	plan, subscription_status, billing_customer_id, billing_subscription_id, current_period_end,
	payment_publishable_key, payment_secret_key, onboarded, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertStore(ctx context.Context, db execer, s *Store) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO stores (id, owner_id, slug, name, description, template, logo_url, phone,
		                    status, plan, subscription_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.OwnerID, s.Slug, s.Name, s.Description, s.Template, s.LogoURL, s.Phone,
		s.Status, s.Plan, s.SubscriptionStatus)
	if database.IsDuplicateKey(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

func (r *postgresRepo) CreateStore(ctx context.Context, s *Store) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertStore(ctx, tx, s); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 AND role = $3`,
		user.RoleStoreOwner, s.OwnerID, user.RoleUser); err != nil {
		return fmt.Errorf("upgrade owner role: %w", err)
	}
	return tx.Commit()
}

func (r *postgresRepo) CreateOwnerAndStore(ctx context.Context, u *user.User, s *Store) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role)
	if database.IsDuplicateKey(err) {
		return user.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}
	if err := insertStore(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) GetStoreByID(ctx context.Context, id string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrStoreNotFound
	}
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id=$1`, uid))
}

func (r *postgresRepo) GetStoreBySlug(ctx context.Context, slug string) (*Store, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE slug=$1`, slug))
}

func (r *postgresRepo) GetStoreByBillingCustomer(ctx context.Context, customerID string) (*Store, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE billing_customer_id=$1 AND billing_customer_id <> ''`, customerID))
}

func (r *postgresRepo) ListStoresByOwner(ctx context.Context, ownerID string) ([]*Store, error) {
	uid, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT `+storeColumns+` FROM stores WHERE owner_id=$1 ORDER BY created_at ASC`, uid)
}

func (r *postgresRepo) ListStores(ctx context.Context) ([]*Store, error) {
	return r.query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY created_at DESC`)
}

// UpdateStore writes the owner-editable fields. The slug is never written.
func (r *postgresRepo) UpdateStore(ctx context.Context, s *Store) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stores
		SET name=$1, description=$2, template=$3, logo_url=$4, phone=$5,
		    payment_publishable_key=$6, payment_secret_key=$7, updated_at=NOW()
		WHERE id=$8`,
		s.Name, s.Description, s.Template, s.LogoURL, s.Phone,
		s.PaymentPublishableKey, s.PaymentSecretKey, s.ID)
	return expectRow(res, err)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stores SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return expectRow(res, err)
}

func (r *postgresRepo) UpdateBilling(ctx context.Context, id string, b Billing) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stores
		SET plan=$1, subscription_status=$2, billing_customer_id=$3,
		    billing_subscription_id=$4, current_period_end=$5, updated_at=NOW()
		WHERE id=$6`,
		b.Plan, b.SubscriptionStatus, b.CustomerID, b.SubscriptionID, b.CurrentPeriodEnd, id)
	return expectRow(res, err)
}

func (r *postgresRepo) SetOnboarded(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stores SET onboarded=TRUE, updated_at=NOW() WHERE id=$1`, id)
	return expectRow(res, err)
}

func (r *postgresRepo) CountProducts(ctx context.Context, storeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE store_id=$1`, storeID).Scan(&n)
	return n, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStore(row scanner) (*Store, error) {
	s := &Store{}
	var periodEnd sql.NullTime
	err := row.Scan(&s.ID, &s.OwnerID, &s.Slug, &s.Name, &s.Description, &s.Template,
		&s.LogoURL, &s.Phone, &s.Status,
		&s.Plan, &s.SubscriptionStatus, &s.BillingCustomerID, &s.BillingSubscriptionID, &periodEnd,
		&s.PaymentPublishableKey, &s.PaymentSecretKey, &s.Onboarded, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		s.CurrentPeriodEnd = &t
	}
	return s, nil
}

func (r *postgresRepo) scanOne(row *sql.Row) (*Store, error) {
	s, err := scanStore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	return s, err
}

func (r *postgresRepo) query(ctx context.Context, query string, args ...interface{}) ([]*Store, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stores []*Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func expectRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoreNotFound
	}
	return nil
}
