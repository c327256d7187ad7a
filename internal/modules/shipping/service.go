package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNoRate = errors.New("shipping rate not found")

// Service defines shipping rate business logic.
type Service interface {
	ListRates(ctx context.Context, storeID uuid.UUID) ([]*Rate, error)
	// RateFor returns the delivery price for a governorate, ErrNoRate when
	// the store does not deliver there.
	RateFor(ctx context.Context, storeID uuid.UUID, governorate string) (decimal.Decimal, error)
	UpsertRates(ctx context.Context, storeID uuid.UUID, rates []RateInput) ([]*Rate, error)
	DeleteRate(ctx context.Context, storeID uuid.UUID, governorate string) error
}

type RateInput struct {
	Governorate string          `json:"governorate"`
	Price       decimal.Decimal `json:"price"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListRates(ctx context.Context, storeID uuid.UUID) ([]*Rate, error) {
	rates, err := s.repo.List(ctx, storeID.String())
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = []*Rate{}
	}
	return rates, nil
}

func (s *service) RateFor(ctx context.Context, storeID uuid.UUID, governorate string) (decimal.Decimal, error) {
	key := NormaliseGovernorate(governorate)
	if key == "" {
		return decimal.Zero, fmt.Errorf("governorate is required")
	}
	rate, err := s.repo.Get(ctx, storeID.String(), key)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Price, nil
}

func (s *service) UpsertRates(ctx context.Context, storeID uuid.UUID, inputs []RateInput) ([]*Rate, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one rate is required")
	}
	rates := make([]*Rate, 0, len(inputs))
	for _, in := range inputs {
		key := NormaliseGovernorate(in.Governorate)
		if key == "" {
			return nil, fmt.Errorf("governorate is required")
		}
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("invalid price for %s: must not be negative", key)
		}
		rates = append(rates, &Rate{StoreID: storeID, Governorate: key, Price: in.Price.Round(2)})
	}
	if err := s.repo.Upsert(ctx, rates); err != nil {
		return nil, err
	}
	return rates, nil
}

func (s *service) DeleteRate(ctx context.Context, storeID uuid.UUID, governorate string) error {
	return s.repo.Delete(ctx, storeID.String(), NormaliseGovernorate(governorate))
}
