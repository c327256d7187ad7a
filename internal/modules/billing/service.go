package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/georgemunganga/souq-backend/internal/events"
	"github.com/georgemunganga/souq-backend/internal/modules/payment"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
)

var (
	ErrDisabled        = errors.New("billing is not configured")
	ErrPlanUnavailable = errors.New("invalid plan: not available for purchase")
	ErrNoCustomer      = errors.New("this store has no billing account yet")
	ErrUnknownStore    = errors.New("billing event references no known store")
)

// Stores is the part of the store service billing needs.
type Stores interface {
	GetStore(ctx context.Context, id string) (*store.Store, error)
	GetStoreByBillingCustomer(ctx context.Context, customerID string) (*store.Store, error)
	ApplyBilling(ctx context.Context, s *store.Store, b store.Billing) error
}

// Service defines plan subscription business logic.
type Service interface {
	Status(st *store.Store) Status
	Checkout(ctx context.Context, st *store.Store, plan, email string) (string, error)
	Portal(ctx context.Context, st *store.Store) (string, error)
	// HandleWebhook verifies and applies one provider event. Redelivered
	// events are acknowledged without being applied again.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type service struct {
	gateway   payment.Gateway
	repo      Repository
	stores    Stores
	publisher events.Publisher
	prices    map[string]string // plan -> provider price id
	publicKey string
	baseURL   string
	log       zerolog.Logger
}

// NewService creates the billing service. gateway may be nil when no
// provider account is configured.
func NewService(gateway payment.Gateway, repo Repository, stores Stores, publisher events.Publisher, prices map[string]string, publishableKey, baseURL string, log zerolog.Logger) Service {
	return &service{
		gateway:   gateway,
		repo:      repo,
		stores:    stores,
		publisher: publisher,
		prices:    prices,
		publicKey: publishableKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
	}
}

func (s *service) Status(st *store.Store) Status {
	return Status{
		Plan:               st.Plan,
		SubscriptionStatus: st.SubscriptionStatus,
		CurrentPeriodEnd:   st.CurrentPeriodEnd,
		HasCustomer:        st.BillingCustomerID != "",
		Enabled:            s.gateway != nil,
		PublishableKey:     s.publicKey,
	}
}

func (s *service) Checkout(ctx context.Context, st *store.Store, plan, email string) (string, error) {
	if s.gateway == nil {
		return "", ErrDisabled
	}
	p := Plan(strings.ToLower(strings.TrimSpace(plan)))
	if !p.Paid() {
		return "", ErrPlanUnavailable
	}
	price, ok := s.prices[string(p)]
	if !ok {
		return "", ErrPlanUnavailable
	}
	return s.gateway.CheckoutURL(ctx, payment.CheckoutRequest{
		StoreID:       st.ID.String(),
		Plan:          string(p),
		PriceID:       price,
		CustomerID:    st.BillingCustomerID,
		CustomerEmail: email,
		SuccessURL:    s.baseURL + "/dashboard/billing?status=success",
		CancelURL:     s.baseURL + "/dashboard/billing?status=cancelled",
	})
}

func (s *service) Portal(ctx context.Context, st *store.Store) (string, error) {
	if s.gateway == nil {
		return "", ErrDisabled
	}
	if st.BillingCustomerID == "" {
		return "", ErrNoCustomer
	}
	return s.gateway.PortalURL(ctx, st.BillingCustomerID, s.baseURL+"/dashboard/billing")
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrDisabled
	}
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if ev.Checkout == nil && ev.Subscription == nil {
		s.log.Debug().Str("event", ev.ID).Str("type", ev.Type).Msg("billing event ignored")
		return nil
	}

	fresh, err := s.repo.MarkProcessed(ctx, ev.ID, ev.Type)
	if err != nil {
		return fmt.Errorf("record billing event: %w", err)
	}
	if !fresh {
		s.log.Info().Str("event", ev.ID).Msg("duplicate billing event")
		return nil
	}

	if err := s.apply(ctx, ev); err != nil {
		if ferr := s.repo.Forget(ctx, ev.ID); ferr != nil {
			s.log.Error().Err(ferr).Str("event", ev.ID).Msg("forget failed billing event")
		}
		return err
	}
	return nil
}

func (s *service) apply(ctx context.Context, ev payment.Event) error {
	var (
		st *store.Store
		b  store.Billing
	)
	switch {
	case ev.Checkout != nil:
		co := ev.Checkout
		found, err := s.findStore(ctx, co.StoreID, co.CustomerID)
		if err != nil {
			return err
		}
		st = found
		b = store.Billing{
			Plan:               s.planOr(co.Plan, "", st.Plan),
			SubscriptionStatus: payment.StatusActive,
			CustomerID:         co.CustomerID,
			SubscriptionID:     co.SubscriptionID,
			CurrentPeriodEnd:   st.CurrentPeriodEnd,
		}

	default:
		sub := ev.Subscription
		found, err := s.findStore(ctx, sub.StoreID, sub.CustomerID)
		if err != nil {
			return err
		}
		st = found
		b = store.Billing{
			Plan:               s.planOr(sub.Plan, sub.PriceID, st.Plan),
			SubscriptionStatus: sub.Status,
			CustomerID:         sub.CustomerID,
			SubscriptionID:     sub.ID,
			CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		}
		if ev.Type == payment.EventSubscriptionDeleted || sub.Status == payment.StatusCancelled {
			b.Plan = string(PlanFree)
			b.SubscriptionStatus = payment.StatusCancelled
		}
	}

	if err := s.stores.ApplyBilling(ctx, st, b); err != nil {
		return err
	}
	s.log.Info().Str("store_id", st.ID.String()).Str("plan", b.Plan).
		Str("status", b.SubscriptionStatus).Str("event", ev.ID).Msg("subscription updated")
	events.Emit(ctx, s.publisher, events.SubscriptionUpdated, st.ID.String(), s.Status(st))
	return nil
}

// findStore locates the store an event is about: by the store id the
// checkout carried, else by provider customer.
func (s *service) findStore(ctx context.Context, storeID, customerID string) (*store.Store, error) {
	if storeID != "" {
		st, err := s.stores.GetStore(ctx, storeID)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, store.ErrStoreNotFound) {
			return nil, err
		}
	}
	if customerID != "" {
		st, err := s.stores.GetStoreByBillingCustomer(ctx, customerID)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, store.ErrStoreNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w (store %q, customer %q)", ErrUnknownStore, storeID, customerID)
}

// planOr resolves the plan from event metadata, then from the price id,
// keeping current when neither names a known plan.
func (s *service) planOr(plan, priceID, current string) string {
	if p := Plan(plan); p.Valid() {
		return string(p)
	}
	for name, id := range s.prices {
		if priceID != "" && id == priceID {
			return name
		}
	}
	return current
}
