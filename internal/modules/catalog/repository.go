package catalog

import "context"

// Repository defines product data storage. Every lookup is scoped to a store.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, storeID, id string) (*Product, error)
	List(ctx context.Context, storeID, category string) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, storeID, id string) error
}
