package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists the order and its items and decrements stock in
	// one transaction. Stock is decremented conditionally; a line that no
	// longer fits aborts the whole order with ErrInsufficientStock.
	CreateOrder(ctx context.Context, o *Order) error

	GetOrder(ctx context.Context, storeID, id string) (*Order, error)
	ListOrders(ctx context.Context, storeID string, status OrderStatus) ([]*Order, error)

	// UpdateStatus moves o from its current status to next, failing with
	// ErrStatusConflict if the stored status changed meanwhile. Cancelling
	// returns the items to stock.
	UpdateStatus(ctx context.Context, o *Order, next OrderStatus) error

	SetPaymentReference(ctx context.Context, id uuid.UUID, ref string) error

	// ProductSnapshots loads the listed products of a store, keyed by id.
	ProductSnapshots(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ProductSnapshot, error)
}
