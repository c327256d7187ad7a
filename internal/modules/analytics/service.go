package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultDays = 30
	maxDays     = 365
	topLimit    = 5
)

// Service computes dashboard analytics.
type Service interface {
	Summary(ctx context.Context, storeID uuid.UUID, days int) (*Summary, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service { return &service{repo: repo, now: time.Now} }

// ParseDays reads the days query parameter; empty means DefaultDays.
func ParseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxDays {
		return 0, fmt.Errorf("invalid days: must be between 1 and %d", maxDays)
	}
	return days, nil
}

func (s *service) Summary(ctx context.Context, storeID uuid.UUID, days int) (*Summary, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))

	totals, err := s.repo.StatusTotals(ctx, storeID, from)
	if err != nil {
		return nil, fmt.Errorf("status totals: %w", err)
	}
	daily, err := s.repo.DailyRevenue(ctx, storeID, from)
	if err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	top, err := s.repo.TopProducts(ctx, storeID, from, topLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	sum := &Summary{
		Days:              days,
		From:              from,
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ByStatus:          map[string]int{},
		Daily:             fillDays(from, days, daily),
		TopProducts:       top,
	}
	if sum.TopProducts == nil {
		sum.TopProducts = []TopProduct{}
	}
	for _, t := range totals {
		sum.ByStatus[t.Status] = t.Orders
		if t.Status == "cancelled" {
			continue
		}
		sum.Orders += t.Orders
		sum.Revenue = sum.Revenue.Add(t.Revenue)
	}
	if sum.Orders > 0 {
		sum.AverageOrderValue = sum.Revenue.Div(decimal.NewFromInt(int64(sum.Orders))).Round(2)
	}
	return sum, nil
}

// fillDays returns one entry per day from from, zero where no orders exist.
func fillDays(from time.Time, days int, rows []DailyRevenue) []DailyRevenue {
	byDate := make(map[string]DailyRevenue, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}
	out := make([]DailyRevenue, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format("2006-01-02")
		d, ok := byDate[date]
		if !ok {
			d = DailyRevenue{Date: date, Revenue: decimal.Zero}
		}
		out = append(out, d)
	}
	return out
}
