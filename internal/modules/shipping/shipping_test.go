package shipping

import (
	"context"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memRepo struct {
	mu    sync.Mutex
	rates map[string]*Rate
}

func newMemRepo() *memRepo { return &memRepo{rates: map[string]*Rate{}} }

func key(storeID, governorate string) string { return storeID + "|" + governorate }

func (m *memRepo) List(_ context.Context, storeID string) ([]*Rate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Rate
	for _, r := range m.rates {
		if r.StoreID.String() == storeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, storeID, governorate string) (*Rate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rates[key(storeID, governorate)]; ok {
		return r, nil
	}
	return nil, ErrNoRate
}

func (m *memRepo) Upsert(_ context.Context, rates []*Rate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rates {
		m.rates[key(r.StoreID.String(), r.Governorate)] = r
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, storeID, governorate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(storeID, governorate)
	if _, ok := m.rates[k]; !ok {
		return ErrNoRate
	}
	delete(m.rates, k)
	return nil
}

func TestNormaliseGovernorate(t *testing.T) {
	c := qt.New(t)

	c.Assert(NormaliseGovernorate("  كفر   الشيخ "), qt.Equals, "كفر الشيخ")
	// Alef followed by a combining hamza composes to the precomposed letter.
	decomposed := "\u0627\u0654\u0633\u0648\u0627\u0646"
	c.Assert(NormaliseGovernorate(decomposed), qt.Equals, "\u0623\u0633\u0648\u0627\u0646")
	c.Assert(NormaliseGovernorate(decomposed), qt.Equals, NormaliseGovernorate("أسوان"))
}

func TestGovernoratesAreNormalised(t *testing.T) {
	c := qt.New(t)
	c.Assert(Governorates, qt.HasLen, 27)
	for _, g := range Governorates {
		c.Assert(NormaliseGovernorate(g), qt.Equals, g)
	}
}

func TestUpsertAndRateFor(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := NewService(newMemRepo())
	storeID := uuid.New()

	_, err := svc.UpsertRates(ctx, storeID, []RateInput{
		{Governorate: "القاهرة", Price: decimal.NewFromInt(50)},
		{Governorate: " الجيزة ", Price: decimal.NewFromInt(60)},
	})
	c.Assert(err, qt.IsNil)

	price, err := svc.RateFor(ctx, storeID, "القاهرة ")
	c.Assert(err, qt.IsNil)
	c.Assert(price.Equal(decimal.NewFromInt(50)), qt.IsTrue)

	_, err = svc.UpsertRates(ctx, storeID, []RateInput{{Governorate: "القاهرة", Price: decimal.NewFromInt(45)}})
	c.Assert(err, qt.IsNil)
	price, err = svc.RateFor(ctx, storeID, "القاهرة")
	c.Assert(err, qt.IsNil)
	c.Assert(price.Equal(decimal.NewFromInt(45)), qt.IsTrue)

	_, err = svc.RateFor(ctx, uuid.New(), "القاهرة")
	c.Assert(err, qt.Equals, ErrNoRate)
	_, err = svc.RateFor(ctx, storeID, "  ")
	c.Assert(err, qt.ErrorMatches, "governorate is required")

	rates, err := svc.ListRates(ctx, storeID)
	c.Assert(err, qt.IsNil)
	c.Assert(rates, qt.HasLen, 2)

	c.Assert(svc.DeleteRate(ctx, storeID, "الجيزة"), qt.IsNil)
	c.Assert(svc.DeleteRate(ctx, storeID, "الجيزة"), qt.Equals, ErrNoRate)
}

func TestUpsertValidation(t *testing.T) {
	c := qt.New(t)
	svc := NewService(newMemRepo())

	_, err := svc.UpsertRates(context.Background(), uuid.New(), nil)
	c.Assert(err, qt.ErrorMatches, "at least one rate is required")
	_, err = svc.UpsertRates(context.Background(), uuid.New(), []RateInput{{Governorate: "السويس", Price: decimal.NewFromInt(-5)}})
	c.Assert(err, qt.ErrorMatches, "invalid price for السويس: must not be negative")
}
