package store

import (
	"context"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

// Repository defines store data storage.
type Repository interface {
	// CreateStore persists s and upgrades its owner from a plain user to a
	// store owner in the same transaction.
	CreateStore(ctx context.Context, s *Store) error
	// CreateOwnerAndStore persists a new account together with its first store.
	CreateOwnerAndStore(ctx context.Context, u *user.User, s *Store) error

	GetStoreByID(ctx context.Context, id string) (*Store, error)
	GetStoreBySlug(ctx context.Context, slug string) (*Store, error)
	GetStoreByBillingCustomer(ctx context.Context, customerID string) (*Store, error)
	ListStoresByOwner(ctx context.Context, ownerID string) ([]*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)

	UpdateStore(ctx context.Context, s *Store) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateBilling(ctx context.Context, id string, b Billing) error
	SetOnboarded(ctx context.Context, id string) error

	CountProducts(ctx context.Context, storeID string) (int, error)
}
