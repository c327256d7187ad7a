package settings

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
)

type memRepo struct {
	platform Values
	stores   map[uuid.UUID]Values
}

func newMemRepo() *memRepo {
	return &memRepo{platform: Values{}, stores: map[uuid.UUID]Values{}}
}

func (m *memRepo) Effective(_ context.Context, storeID uuid.UUID) (Values, error) {
	out := Values{}
	for k, v := range m.platform {
		out[k] = v
	}
	for k, v := range m.stores[storeID] {
		out[k] = v
	}
	return out, nil
}

func (m *memRepo) Platform(context.Context) (Values, error) {
	out := Values{}
	for k, v := range m.platform {
		out[k] = v
	}
	return out, nil
}

func (m *memRepo) Upsert(_ context.Context, storeID *uuid.UUID, values Values) error {
	target := m.platform
	if storeID != nil {
		if m.stores[*storeID] == nil {
			m.stores[*storeID] = Values{}
		}
		target = m.stores[*storeID]
	}
	for k, v := range values {
		target[k] = v
	}
	return nil
}

func TestStoreRowsOverridePlatform(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := NewService(newMemRepo())
	mine, other := uuid.New(), uuid.New()

	_, err := svc.Update(ctx, nil, Values{KeyFreeShippingEnabled: "true", KeyAnnouncement: "Eid sale"})
	c.Assert(err, qt.IsNil)

	got, err := svc.Update(ctx, &mine, Values{KeyFreeShippingEnabled: "false"})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, Values{KeyFreeShippingEnabled: "false", KeyAnnouncement: "Eid sale"})

	got, err = svc.Get(ctx, other)
	c.Assert(err, qt.IsNil)
	c.Assert(got[KeyFreeShippingEnabled], qt.Equals, "true")
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  Values
		wantErr string
	}{
		{name: "empty", values: Values{}, wantErr: "at least one setting is required"},
		{name: "unknown key", values: Values{"theme": "dark"}, wantErr: `invalid setting "theme"`},
		{name: "bad bool", values: Values{KeyFreeShippingEnabled: "maybe"}, wantErr: "invalid free_shipping_enabled: .*"},
		{name: "bad time", values: Values{KeyFreeShippingUntil: "next week"}, wantErr: "invalid free_shipping_until: .*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			id := uuid.New()
			_, err := NewService(newMemRepo()).Update(context.Background(), &id, tt.values)
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

func TestUpdateNormalisesValues(t *testing.T) {
	c := qt.New(t)
	id := uuid.New()

	got, err := NewService(newMemRepo()).Update(context.Background(), &id, Values{
		KeyFreeShippingEnabled: " TRUE ",
		KeyFreeShippingUntil:   "2026-05-01",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(got[KeyFreeShippingEnabled], qt.Equals, "true")
	c.Assert(got[KeyFreeShippingUntil], qt.Equals, "2026-05-02T00:00:00Z")
}

func TestPromotionActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tomorrow := now.Add(24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		p    Promotion
		want bool
	}{
		{name: "disabled", p: Promotion{Until: &tomorrow}, want: false},
		{name: "open ended", p: Promotion{Enabled: true}, want: true},
		{name: "running", p: Promotion{Enabled: true, Until: &tomorrow}, want: true},
		{name: "expired", p: Promotion{Enabled: true, Until: &yesterday}, want: false},
		{name: "ends now", p: Promotion{Enabled: true, Until: &now}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(tt.p.Active(now), qt.Equals, tt.want)
		})
	}
}

func TestPromotionFrom(t *testing.T) {
	c := qt.New(t)

	p := PromotionFrom(Values{KeyFreeShippingEnabled: "true", KeyFreeShippingUntil: "2026-03-11T00:00:00Z"})
	c.Assert(p.Enabled, qt.IsTrue)
	c.Assert(p.Until.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)), qt.IsTrue)

	c.Assert(PromotionFrom(Values{KeyFreeShippingEnabled: "true", KeyFreeShippingUntil: "garbage"}), qt.DeepEquals, Promotion{})
	c.Assert(PromotionFrom(Values{}), qt.DeepEquals, Promotion{})
}
