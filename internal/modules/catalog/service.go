package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

const maxImages = 10

// Service defines product catalog business logic.
type Service interface {
	ListProducts(ctx context.Context, storeID uuid.UUID, category string) ([]*Product, error)
	GetProduct(ctx context.Context, storeID uuid.UUID, id string) (*Product, error)
	CreateProduct(ctx context.Context, storeID uuid.UUID, req ProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, storeID uuid.UUID, id string, req ProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, storeID uuid.UUID, id string) error
}

// ProductRequest carries product fields. On update nil fields are left
// unchanged; on create Title and Price are required.
type ProductRequest struct {
	StoreID     string           `json:"store_id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	Images      []string         `json:"images"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListProducts(ctx context.Context, storeID uuid.UUID, category string) ([]*Product, error) {
	products, err := s.repo.List(ctx, storeID.String(), strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*Product{}
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, storeID uuid.UUID, id string) (*Product, error) {
	return s.repo.GetByID(ctx, storeID.String(), id)
}

func (s *service) CreateProduct(ctx context.Context, storeID uuid.UUID, req ProductRequest) (*Product, error) {
	if req.Title == nil {
		return nil, fmt.Errorf("title is required")
	}
	if req.Price == nil {
		return nil, fmt.Errorf("price is required")
	}
	p := &Product{ID: uuid.New(), StoreID: storeID, Images: []string{}}
	if err := apply(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, storeID uuid.UUID, id string, req ProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, storeID.String(), id)
	if err != nil {
		return nil, err
	}
	if err := apply(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, storeID uuid.UUID, id string) error {
	return s.repo.Delete(ctx, storeID.String(), id)
}

func apply(p *Product, req ProductRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return fmt.Errorf("title is required")
		}
		p.Title = title
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return fmt.Errorf("invalid price: must not be negative")
		}
		p.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fmt.Errorf("invalid stock: must not be negative")
		}
		p.Stock = *req.Stock
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.Images != nil {
		if len(req.Images) > maxImages {
			return fmt.Errorf("invalid images: at most %d allowed", maxImages)
		}
		images := make([]string, 0, len(req.Images))
		for _, img := range req.Images {
			if img = strings.TrimSpace(img); img != "" {
				images = append(images, img)
			}
		}
		p.Images = images
	}
	return nil
}
