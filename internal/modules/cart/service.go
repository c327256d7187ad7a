package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/modules/catalog"
)

const maxQuantity = 100

var ErrOutOfStock = errors.New("insufficient stock")

// Products looks up catalog entries of a store.
type Products interface {
	GetProduct(ctx context.Context, storeID uuid.UUID, id string) (*catalog.Product, error)
}

// Service manages storefront carts. Every call reloads the cart from the
// Store and saves it back after a change.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID, id string) (*Cart, error)
	AddItem(ctx context.Context, storeID uuid.UUID, id, productID string, qty int) (*Cart, error)
	RemoveItem(ctx context.Context, storeID uuid.UUID, id, productID string) (*Cart, error)
	Clear(ctx context.Context, storeID uuid.UUID, id string) error
}

type service struct {
	carts    Store
	products Products
	now      func() time.Time
}

func NewService(carts Store, products Products) Service {
	return &service{carts: carts, products: products, now: time.Now}
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID, id string) (*Cart, error) {
	return s.carts.Load(ctx, storeID, id)
}

func (s *service) AddItem(ctx context.Context, storeID uuid.UUID, id, productID string, qty int) (*Cart, error) {
	if qty <= 0 || qty > maxQuantity {
		return nil, fmt.Errorf("invalid quantity: must be between 1 and %d", maxQuantity)
	}
	p, err := s.products.GetProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Load(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	want := c.Quantity(p.ID) + qty
	if want > maxQuantity {
		return nil, fmt.Errorf("invalid quantity: at most %d of %s per order", maxQuantity, p.Title)
	}
	if !p.InStock(want) {
		return nil, fmt.Errorf("%s: %w (%d left)", p.Title, ErrOutOfStock, p.Stock)
	}
	item := Item{ProductID: p.ID, Title: p.Title, Price: p.Price}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	c.Add(item, qty)
	return c, s.save(ctx, c)
}

func (s *service) RemoveItem(ctx context.Context, storeID uuid.UUID, id, productID string) (*Cart, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id %q", productID)
	}
	c, err := s.carts.Load(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if !c.Remove(pid) {
		return c, nil
	}
	return c, s.save(ctx, c)
}

func (s *service) Clear(ctx context.Context, storeID uuid.UUID, id string) error {
	return s.carts.Delete(ctx, storeID, id)
}

func (s *service) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = s.now().UTC()
	return s.carts.Save(ctx, c)
}
