package settings

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines setting storage. A nil store id addresses the
// platform-wide rows.
type Repository interface {
	// Effective returns platform rows overlaid with the store's own rows.
	Effective(ctx context.Context, storeID uuid.UUID) (Values, error)
	Platform(ctx context.Context) (Values, error)
	Upsert(ctx context.Context, storeID *uuid.UUID, values Values) error
}
