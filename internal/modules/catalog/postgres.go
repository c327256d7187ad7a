package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id, store_id, title, description, price, stock, category, images, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, store_id, title, description, price, stock, category, images)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.StoreID, p.Title, p.Description, p.Price, p.Stock, p.Category, p.Images)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, storeID, id string) (*Product, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1 AND store_id=$2`, pid, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context, storeID, category string) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE store_id=$1`
	args := []interface{}{storeID}
	if category != "" {
		query += ` AND category=$2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title=$1, description=$2, price=$3, stock=$4, category=$5, images=$6, updated_at=NOW()
		WHERE id=$7 AND store_id=$8`,
		p.Title, p.Description, p.Price, p.Stock, p.Category, p.Images, p.ID, p.StoreID)
	return expectRow(res, err)
}

func (r *postgresRepo) Delete(ctx context.Context, storeID, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1 AND store_id=$2`, pid, storeID)
	return expectRow(res, err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.StoreID, &p.Title, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func expectRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
