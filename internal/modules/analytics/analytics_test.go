package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

type fakeRepo struct {
	since  time.Time
	totals []StatusTotal
	daily  []DailyRevenue
	top    []TopProduct
}

func (f *fakeRepo) StatusTotals(_ context.Context, _ uuid.UUID, since time.Time) ([]StatusTotal, error) {
	f.since = since
	return f.totals, nil
}

func (f *fakeRepo) DailyRevenue(context.Context, uuid.UUID, time.Time) ([]DailyRevenue, error) {
	return f.daily, nil
}

func (f *fakeRepo) TopProducts(_ context.Context, _ uuid.UUID, _ time.Time, limit int) ([]TopProduct, error) {
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestSummary(t *testing.T) {
	c := qt.New(t)
	repo := &fakeRepo{
		totals: []StatusTotal{
			{Status: "pending", Orders: 2, Revenue: dec(250)},
			{Status: "delivered", Orders: 1, Revenue: dec(100)},
			{Status: "cancelled", Orders: 4, Revenue: dec(1000)},
		},
		daily: []DailyRevenue{{Date: "2026-06-09", Revenue: dec(350), Orders: 3}},
		top:   []TopProduct{{Title: "Mug", Quantity: 5, Revenue: dec(500)}},
	}
	svc := &service{repo: repo, now: func() time.Time { return time.Date(2026, 6, 10, 15, 30, 0, 0, time.UTC) }}

	sum, err := svc.Summary(context.Background(), uuid.New(), 7)
	c.Assert(err, qt.IsNil)
	c.Assert(repo.since, qt.Equals, time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC))
	c.Assert(sum.Orders, qt.Equals, 3)
	c.Assert(sum.Revenue.Equal(dec(350)), qt.IsTrue)
	c.Assert(sum.AverageOrderValue.String(), qt.Equals, "116.67")
	c.Assert(sum.ByStatus, qt.DeepEquals, map[string]int{"pending": 2, "delivered": 1, "cancelled": 4})
	c.Assert(sum.Daily, qt.HasLen, 7)
	c.Assert(sum.Daily[0].Date, qt.Equals, "2026-06-04")
	c.Assert(sum.Daily[5].Revenue.Equal(dec(350)), qt.IsTrue)
	c.Assert(sum.Daily[6].Date, qt.Equals, "2026-06-10")
	c.Assert(sum.Daily[6].Revenue.IsZero(), qt.IsTrue)
	c.Assert(sum.TopProducts, qt.HasLen, 1)
}

func TestSummaryEmpty(t *testing.T) {
	c := qt.New(t)
	svc := NewService(&fakeRepo{})
	sum, err := svc.Summary(context.Background(), uuid.New(), DefaultDays)
	c.Assert(err, qt.IsNil)
	c.Assert(sum.Orders, qt.Equals, 0)
	c.Assert(sum.AverageOrderValue.IsZero(), qt.IsTrue)
	c.Assert(sum.Daily, qt.HasLen, DefaultDays)
	c.Assert(sum.TopProducts, qt.HasLen, 0)
}

func TestParseDays(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		in   string
		want int
		err  string
	}{
		{in: "", want: 30},
		{in: "7", want: 7},
		{in: "365", want: 365},
		{in: "0", err: "invalid days.*"},
		{in: "366", err: "invalid days.*"},
		{in: "week", err: "invalid days.*"},
	}
	for _, test := range tests {
		got, err := ParseDays(test.in)
		if test.err != "" {
			c.Check(err, qt.ErrorMatches, test.err, qt.Commentf(test.in))
			continue
		}
		c.Check(err, qt.IsNil)
		c.Check(got, qt.Equals, test.want)
	}
}

type stores struct {
	store.Service
	st *store.Store
}

func (s stores) ResolveAdminStore(_ context.Context, id auth.Identity, _ string) (*store.Store, error) {
	if !auth.CanAdminister(s.st, id) {
		return nil, store.ErrForbidden
	}
	return s.st, nil
}

func TestHandlerOnboardingGate(t *testing.T) {
	owner := auth.Identity{ID: uuid.New(), Role: user.RoleStoreOwner}
	tests := []struct {
		name      string
		id        auth.Identity
		onboarded bool
		query     string
		want      int
	}{
		{name: "anonymous", onboarded: true, want: http.StatusUnauthorized},
		{name: "not onboarded", id: owner, want: http.StatusForbidden},
		{name: "super admin skips onboarding", id: auth.Identity{ID: uuid.New(), Role: user.RoleSuperAdmin}, want: http.StatusOK},
		{name: "owner", id: owner, onboarded: true, want: http.StatusOK},
		{name: "bad days", id: owner, onboarded: true, query: "?days=0", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			st := &store.Store{ID: uuid.New(), OwnerID: owner.ID, Onboarded: tt.onboarded}
			mux := chi.NewMux()
			NewHandler(NewService(&fakeRepo{}), stores{st: st}).RegisterRoutes(mux)

			r := httptest.NewRequest(http.MethodGet, "/api/analytics"+tt.query, nil)
			r = r.WithContext(auth.NewContext(r.Context(), tt.id))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, r)

			c.Assert(rec.Code, qt.Equals, tt.want, qt.Commentf(rec.Body.String()))
			if tt.want == http.StatusOK {
				var sum Summary
				c.Assert(json.Unmarshal(rec.Body.Bytes(), &sum), qt.IsNil)
				c.Assert(sum.Days, qt.Equals, DefaultDays)
			}
		})
	}
}
