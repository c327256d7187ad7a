package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary is a store's sales over the last Days days. Cancelled orders
// count towards ByStatus only.
type Summary struct {
	Days              int             `json:"days"`
	From              time.Time       `json:"from"`
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int             `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	ByStatus          map[string]int  `json:"by_status"`
	Daily             []DailyRevenue  `json:"daily"`
	TopProducts       []TopProduct    `json:"top_products"`
}

type DailyRevenue struct {
	Date    string          `json:"date"` // YYYY-MM-DD, UTC
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type TopProduct struct {
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// StatusTotal is the order count and revenue for one status.
type StatusTotal struct {
	Status  string
	Orders  int
	Revenue decimal.Decimal
}
