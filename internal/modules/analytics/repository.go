package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository aggregates order data of one store created at or after since.
type Repository interface {
	StatusTotals(ctx context.Context, storeID uuid.UUID, since time.Time) ([]StatusTotal, error)
	// DailyRevenue returns only days that have orders, oldest first.
	DailyRevenue(ctx context.Context, storeID uuid.UUID, since time.Time) ([]DailyRevenue, error)
	TopProducts(ctx context.Context, storeID uuid.UUID, since time.Time, limit int) ([]TopProduct, error)
}
