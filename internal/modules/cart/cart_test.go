package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/souq-backend/internal/modules/catalog"
)

func TestAddMergesQuantities(t *testing.T) {
	c := qt.New(t)
	pid := uuid.New()
	var cart Cart
	cart.Add(Item{ProductID: pid, Price: decimal.NewFromInt(100)}, 1)
	cart.Add(Item{ProductID: pid, Price: decimal.NewFromInt(100)}, 2)

	c.Assert(cart.Items, qt.HasLen, 1)
	c.Assert(cart.Items[0].Quantity, qt.Equals, 3)
	c.Assert(cart.Count(), qt.Equals, 3)
	c.Assert(cart.Total().Equal(decimal.NewFromInt(300)), qt.IsTrue)
}

func TestRemoveRecomputesTotal(t *testing.T) {
	c := qt.New(t)
	a, b := uuid.New(), uuid.New()
	var cart Cart
	cart.Add(Item{ProductID: a, Price: decimal.NewFromInt(100)}, 1)
	cart.Add(Item{ProductID: b, Price: decimal.NewFromInt(200)}, 1)
	c.Assert(cart.Total().Equal(decimal.NewFromInt(300)), qt.IsTrue)

	c.Assert(cart.Remove(a), qt.IsTrue)
	c.Assert(cart.Total().Equal(decimal.NewFromInt(200)), qt.IsTrue)
	c.Assert(cart.Count(), qt.Equals, 1)
	c.Assert(cart.Remove(a), qt.IsFalse)
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	storeID := uuid.New()

	empty, err := s.Load(ctx, storeID, "cart-1")
	c.Assert(err, qt.IsNil)
	c.Assert(empty.Items, qt.HasLen, 0)

	empty.Add(Item{ProductID: uuid.New(), Price: decimal.NewFromInt(5)}, 1)
	c.Assert(s.Save(ctx, empty), qt.IsNil)
	empty.Items[0].Quantity = 99

	got, err := s.Load(ctx, storeID, "cart-1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Items[0].Quantity, qt.Equals, 1)

	other, err := s.Load(ctx, uuid.New(), "cart-1")
	c.Assert(err, qt.IsNil)
	c.Assert(other.Items, qt.HasLen, 0)

	c.Assert(s.Delete(ctx, storeID, "cart-1"), qt.IsNil)
	got, err = s.Load(ctx, storeID, "cart-1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Items, qt.HasLen, 0)
}

type products map[uuid.UUID]*catalog.Product

func (p products) GetProduct(_ context.Context, storeID uuid.UUID, id string) (*catalog.Product, error) {
	for k, v := range p {
		if k.String() == id && v.StoreID == storeID {
			return v, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func TestServiceAddItem(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	storeID := uuid.New()
	mug := &catalog.Product{ID: uuid.New(), StoreID: storeID, Title: "Mug", Price: decimal.NewFromInt(100), Stock: 3, Images: []string{"https://cdn/mug.jpg"}}
	svc := NewService(NewMemoryStore(time.Hour), products{mug.ID: mug})

	cart, err := svc.AddItem(ctx, storeID, "c1", mug.ID.String(), 2)
	c.Assert(err, qt.IsNil)
	c.Assert(cart.Items[0].Image, qt.Equals, "https://cdn/mug.jpg")

	_, err = svc.AddItem(ctx, storeID, "c1", mug.ID.String(), 2)
	c.Assert(errors.Is(err, ErrOutOfStock), qt.IsTrue)

	_, err = svc.AddItem(ctx, storeID, "c1", mug.ID.String(), 0)
	c.Assert(err, qt.ErrorMatches, "invalid quantity.*")

	_, err = svc.AddItem(ctx, uuid.New(), "c1", mug.ID.String(), 1)
	c.Assert(err, qt.Equals, catalog.ErrNotFound)

	cart, err = svc.Get(ctx, storeID, "c1")
	c.Assert(err, qt.IsNil)
	c.Assert(cart.Count(), qt.Equals, 2)

	cart, err = svc.RemoveItem(ctx, storeID, "c1", mug.ID.String())
	c.Assert(err, qt.IsNil)
	c.Assert(cart.Items, qt.HasLen, 0)

	_, err = svc.RemoveItem(ctx, storeID, "c1", "bad")
	c.Assert(err, qt.ErrorMatches, `invalid product_id "bad"`)
}

func TestServiceCapsMergedQuantity(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	storeID := uuid.New()
	bulk := &catalog.Product{ID: uuid.New(), StoreID: storeID, Title: "Tea", Price: decimal.NewFromInt(10), Stock: 1000}
	svc := NewService(NewMemoryStore(time.Hour), products{bulk.ID: bulk})

	_, err := svc.AddItem(ctx, storeID, "c1", bulk.ID.String(), maxQuantity)
	c.Assert(err, qt.IsNil)

	_, err = svc.AddItem(ctx, storeID, "c1", bulk.ID.String(), 1)
	c.Assert(err, qt.ErrorMatches, "invalid quantity: at most 100 of Tea per order")

	cart, err := svc.Get(ctx, storeID, "c1")
	c.Assert(err, qt.IsNil)
	c.Assert(cart.Quantity(bulk.ID), qt.Equals, maxQuantity)
}

func TestMemoryStoreExpiresCarts(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }
	storeID := uuid.New()

	for _, id := range []string{"old-1", "old-2"} {
		cart := &Cart{ID: id, StoreID: storeID}
		cart.Add(Item{ProductID: uuid.New(), Price: decimal.NewFromInt(5)}, 1)
		c.Assert(s.Save(ctx, cart), qt.IsNil)
	}
	c.Assert(s.Len(), qt.Equals, 2)

	now = now.Add(2 * time.Hour)
	got, err := s.Load(ctx, storeID, "old-1")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Items, qt.HasLen, 0)

	c.Assert(s.Save(ctx, &Cart{ID: "fresh", StoreID: storeID}), qt.IsNil)
	c.Assert(s.Len(), qt.Equals, 1)
}
