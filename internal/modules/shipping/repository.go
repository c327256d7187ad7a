package shipping

import "context"

// Repository defines shipping rate storage, keyed by (store, governorate).
type Repository interface {
	List(ctx context.Context, storeID string) ([]*Rate, error)
	Get(ctx context.Context, storeID, governorate string) (*Rate, error)
	Upsert(ctx context.Context, rates []*Rate) error
	Delete(ctx context.Context, storeID, governorate string) error
}
