package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/georgemunganga/souq-backend/internal/events"
	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

var (
	ErrStoreNotFound        = errors.New("store not found")
	ErrNoStore              = errors.New("you do not have a store yet")
	ErrSlugTaken            = errors.New("this store address is already taken")
	ErrSlugImmutable        = errors.New("invalid request: the store address cannot be changed")
	ErrForbidden            = errors.New(auth.MsgForbidden)
	ErrOnboardingIncomplete = errors.New("onboarding incomplete")
)

// Templates a storefront can be rendered with.
var Templates = []string{"default", "modern", "classic", "minimal"}

const DefaultTemplate = "default"

// Invalidator drops cached lookups of a store after it changes.
type Invalidator interface {
	Invalidate(ctx context.Context, slug string)
}

// Service defines store lifecycle and ownership business logic.
type Service interface {
	CreateStore(ctx context.Context, owner auth.Identity, req CreateStoreRequest) (*Store, error)
	// RegisterMerchant creates an account and its first store atomically.
	RegisterMerchant(ctx context.Context, req RegisterMerchantRequest) (*user.User, *Store, error)
	UpdateStore(ctx context.Context, s *Store, req UpdateStoreRequest) (*Store, error)
	MyStores(ctx context.Context, owner auth.Identity) ([]*Store, error)

	GetStore(ctx context.Context, id string) (*Store, error)
	GetStoreBySlug(ctx context.Context, slug string) (*Store, error)
	GetStoreByBillingCustomer(ctx context.Context, customerID string) (*Store, error)

	// ResolveAdminStore finds the store an admin request acts on: storeID
	// when given, otherwise the caller's oldest store. It returns
	// ErrForbidden when the caller may not administer it.
	ResolveAdminStore(ctx context.Context, id auth.Identity, storeID string) (*Store, error)

	Onboarding(ctx context.Context, s *Store) (Onboarding, error)
	CompleteOnboarding(ctx context.Context, s *Store) (Onboarding, error)

	ListStores(ctx context.Context) ([]*Store, error)
	SetStatus(ctx context.Context, id string, status Status) (*Store, error)
	ApplyBilling(ctx context.Context, s *Store, b Billing) error
}

// CreateStoreRequest holds data for opening a store.
type CreateStoreRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Template    string `json:"template"`
	Phone       string `json:"phone"`
}

// RegisterMerchantRequest is the combined merchant signup form.
type RegisterMerchantRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	StoreName string `json:"store_name"`
	Slug      string `json:"slug"`
	Template  string `json:"template"`
	Phone     string `json:"phone"`
}

// UpdateStoreRequest carries the editable store fields; nil means unchanged.
type UpdateStoreRequest struct {
	StoreID               string  `json:"store_id"`
	Slug                  *string `json:"slug"`
	Name                  *string `json:"name"`
	Description           *string `json:"description"`
	Template              *string `json:"template"`
	LogoURL               *string `json:"logo_url"`
	Phone                 *string `json:"phone"`
	PaymentPublishableKey *string `json:"payment_publishable_key"`
	PaymentSecretKey      *string `json:"payment_secret_key"`
}

type service struct {
	repo        Repository
	publisher   events.Publisher
	invalidator Invalidator
	log         zerolog.Logger
}

// NewService creates a new store service. invalidator may be nil.
func NewService(repo Repository, publisher events.Publisher, invalidator Invalidator, log zerolog.Logger) Service {
	return &service{repo: repo, publisher: publisher, invalidator: invalidator, log: log}
}

func (s *service) CreateStore(ctx context.Context, owner auth.Identity, req CreateStoreRequest) (*Store, error) {
	st, err := newStore(owner.ID, req.Name, req.Slug, req.Template, req.Description, req.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateStore(ctx, st); err != nil {
		return nil, err
	}
	s.created(ctx, st)
	return st, nil
}

func (s *service) RegisterMerchant(ctx context.Context, req RegisterMerchantRequest) (*user.User, *Store, error) {
	u, err := user.NewUser(user.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     user.RoleStoreOwner,
	})
	if err != nil {
		return nil, nil, err
	}
	st, err := newStore(u.ID, req.StoreName, req.Slug, req.Template, "", req.Phone)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.CreateOwnerAndStore(ctx, u, st); err != nil {
		return nil, nil, err
	}
	s.created(ctx, st)
	return u, st, nil
}

func (s *service) created(ctx context.Context, st *Store) {
	s.log.Info().Str("store_id", st.ID.String()).Str("slug", st.Slug).Msg("store created")
	events.Emit(ctx, s.publisher, events.StoreCreated, st.ID.String(), map[string]string{
		"store_id": st.ID.String(),
		"owner_id": st.OwnerID.String(),
		"slug":     st.Slug,
	})
}

func newStore(ownerID uuid.UUID, name, slug, template, description, phone string) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if slug == "" {
		slug = name
	}
	slug = NormaliseSlug(slug)
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	tpl, err := checkTemplate(template)
	if err != nil {
		return nil, err
	}
	return &Store{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Slug:               slug,
		Name:               name,
		Description:        strings.TrimSpace(description),
		Template:           tpl,
		Phone:              strings.TrimSpace(phone),
		Status:             StatusActive,
		Plan:               "free",
		SubscriptionStatus: "none",
	}, nil
}

func checkTemplate(t string) (string, error) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return DefaultTemplate, nil
	}
	for _, known := range Templates {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid template %q", t)
}

func (s *service) UpdateStore(ctx context.Context, st *Store, req UpdateStoreRequest) (*Store, error) {
	updated := *st
	if req.Slug != nil && NormaliseSlug(*req.Slug) != st.Slug {
		return nil, ErrSlugImmutable
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("store name is required")
		}
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Template != nil {
		tpl, err := checkTemplate(*req.Template)
		if err != nil {
			return nil, err
		}
		updated.Template = tpl
	}
	if req.LogoURL != nil {
		updated.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PaymentPublishableKey != nil {
		updated.PaymentPublishableKey = strings.TrimSpace(*req.PaymentPublishableKey)
	}
	if req.PaymentSecretKey != nil {
		updated.PaymentSecretKey = strings.TrimSpace(*req.PaymentSecretKey)
	}
	if (updated.PaymentSecretKey == "") != (updated.PaymentPublishableKey == "") {
		return nil, fmt.Errorf("invalid payment keys: publishable and secret key must be set together")
	}

	if err := s.repo.UpdateStore(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	s.invalidate(ctx, updated.Slug)
	return &updated, nil
}

func (s *service) invalidate(ctx context.Context, slug string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, slug)
	}
}

func (s *service) MyStores(ctx context.Context, owner auth.Identity) ([]*Store, error) {
	stores, err := s.repo.ListStoresByOwner(ctx, owner.ID.String())
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = []*Store{}
	}
	return stores, nil
}

func (s *service) GetStore(ctx context.Context, id string) (*Store, error) {
	return s.repo.GetStoreByID(ctx, id)
}

func (s *service) GetStoreBySlug(ctx context.Context, slug string) (*Store, error) {
	return s.repo.GetStoreBySlug(ctx, slug)
}

func (s *service) GetStoreByBillingCustomer(ctx context.Context, customerID string) (*Store, error) {
	return s.repo.GetStoreByBillingCustomer(ctx, customerID)
}

func (s *service) ResolveAdminStore(ctx context.Context, id auth.Identity, storeID string) (*Store, error) {
	if storeID == "" {
		stores, err := s.repo.ListStoresByOwner(ctx, id.ID.String())
		if err != nil {
			return nil, err
		}
		if len(stores) == 0 {
			return nil, ErrNoStore
		}
		return stores[0], nil
	}
	st, err := s.repo.GetStoreByID(ctx, storeID)
	if errors.Is(err, ErrStoreNotFound) && !id.SuperAdmin() {
		// An unknown id and a foreign id look the same to non-admins.
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !auth.CanAdminister(st, id) {
		return nil, ErrForbidden
	}
	return st, nil
}

func (s *service) Onboarding(ctx context.Context, st *Store) (Onboarding, error) {
	n, err := s.repo.CountProducts(ctx, st.ID.String())
	if err != nil {
		return Onboarding{}, err
	}
	return Onboarding{
		StoreIdentity: st.Name != "" && st.Template != "",
		FirstProduct:  n > 0,
		Completed:     st.Onboarded,
	}, nil
}

func (s *service) CompleteOnboarding(ctx context.Context, st *Store) (Onboarding, error) {
	o, err := s.Onboarding(ctx, st)
	if err != nil {
		return o, err
	}
	if o.Completed {
		return o, nil
	}
	if !o.Ready() {
		return o, fmt.Errorf("cannot complete onboarding: %w", ErrOnboardingIncomplete)
	}
	if err := s.repo.SetOnboarded(ctx, st.ID.String()); err != nil {
		return o, err
	}
	st.Onboarded = true
	o.Completed = true
	return o, nil
}

func (s *service) ListStores(ctx context.Context) ([]*Store, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = []*Store{}
	}
	return stores, nil
}

func (s *service) SetStatus(ctx context.Context, id string, status Status) (*Store, error) {
	if status != StatusActive && status != StatusSuspended {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrStoreNotFound
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	st, err := s.repo.GetStoreByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("store_id", id).Str("status", string(status)).Msg("store status changed")
	s.invalidate(ctx, st.Slug)
	return st, nil
}

func (s *service) ApplyBilling(ctx context.Context, st *Store, b Billing) error {
	if err := s.repo.UpdateBilling(ctx, st.ID.String(), b); err != nil {
		return fmt.Errorf("update billing for store %s: %w", st.ID, err)
	}
	st.Plan = b.Plan
	st.SubscriptionStatus = b.SubscriptionStatus
	st.BillingCustomerID = b.CustomerID
	st.BillingSubscriptionID = b.SubscriptionID
	st.CurrentPeriodEnd = b.CurrentPeriodEnd
	s.invalidate(ctx, st.Slug)
	return nil
}
