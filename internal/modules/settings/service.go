package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service defines settings business logic.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID) (Values, error)
	GetPlatform(ctx context.Context) (Values, error)
	// Update validates and writes values; a nil storeID writes platform rows.
	Update(ctx context.Context, storeID *uuid.UUID, values Values) (Values, error)
	Promotion(ctx context.Context, storeID uuid.UUID) (Promotion, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Get(ctx context.Context, storeID uuid.UUID) (Values, error) {
	return s.repo.Effective(ctx, storeID)
}

func (s *service) GetPlatform(ctx context.Context) (Values, error) {
	return s.repo.Platform(ctx)
}

func (s *service) Update(ctx context.Context, storeID *uuid.UUID, values Values) (Values, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("at least one setting is required")
	}
	clean := Values{}
	for k, v := range values {
		v = strings.TrimSpace(v)
		switch k {
		case KeyFreeShippingEnabled:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: expected true or false", k)
			}
			v = strconv.FormatBool(b)
		case KeyFreeShippingUntil:
			if v != "" {
				t, err := ParseTime(v)
				if err != nil {
					return nil, fmt.Errorf("invalid %s: expected an RFC 3339 time or YYYY-MM-DD", k)
				}
				v = t.UTC().Format(time.RFC3339)
			}
		case KeyAnnouncement:
		default:
			return nil, fmt.Errorf("invalid setting %q", k)
		}
		clean[k] = v
	}
	if err := s.repo.Upsert(ctx, storeID, clean); err != nil {
		return nil, err
	}
	if storeID == nil {
		return s.repo.Platform(ctx)
	}
	return s.repo.Effective(ctx, *storeID)
}

func (s *service) Promotion(ctx context.Context, storeID uuid.UUID) (Promotion, error) {
	values, err := s.repo.Effective(ctx, storeID)
	if err != nil {
		return Promotion{}, err
	}
	return PromotionFrom(values), nil
}

// PromotionFrom reads the free-shipping promotion from resolved values.
// Unparseable values disable it.
func PromotionFrom(values Values) Promotion {
	enabled, _ := strconv.ParseBool(values[KeyFreeShippingEnabled])
	p := Promotion{Enabled: enabled}
	if raw := values[KeyFreeShippingUntil]; raw != "" {
		t, err := ParseTime(raw)
		if err != nil {
			return Promotion{}
		}
		p.Until = &t
	}
	return p
}

// ParseTime accepts RFC 3339 or a bare date, which ends at the start of the
// following day (UTC).
func ParseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.AddDate(0, 0, 1), nil
}
