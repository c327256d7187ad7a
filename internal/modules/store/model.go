package store

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Store is one merchant's tenant: its storefront identity, plan and
// payment-provider credentials.
type Store struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Template    string    `json:"template"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Status      Status    `json:"status"`

	Plan                  string     `json:"plan"`
	SubscriptionStatus    string     `json:"subscription_status"`
	BillingCustomerID     string     `json:"billing_customer_id,omitempty"`
	BillingSubscriptionID string     `json:"billing_subscription_id,omitempty"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`

	PaymentPublishableKey string `json:"payment_publishable_key,omitempty"`
	PaymentSecretKey      string `json:"-"`

	Onboarded bool      `json:"onboarded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) Owner() uuid.UUID { return s.OwnerID }

// AcceptsCards reports whether the merchant connected a payment account.
func (s *Store) AcceptsCards() bool { return s.PaymentSecretKey != "" }

// Public is the storefront-facing view of a store.
type Public struct {
	Slug                  string `json:"slug"`
	Name                  string `json:"name"`
	Description           string `json:"description,omitempty"`
	Template              string `json:"template"`
	LogoURL               string `json:"logo_url,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	PaymentPublishableKey string `json:"payment_publishable_key,omitempty"`
	Demo                  bool   `json:"demo,omitempty"`
}

func (s *Store) Public() Public {
	return Public{
		Slug:                  s.Slug,
		Name:                  s.Name,
		Description:           s.Description,
		Template:              s.Template,
		LogoURL:               s.LogoURL,
		Phone:                 s.Phone,
		PaymentPublishableKey: s.PaymentPublishableKey,
		Demo:                  s.ID == uuid.Nil,
	}
}

// Billing is the subscription state mirrored from the payment provider.
type Billing struct {
	Plan               string
	SubscriptionStatus string
	CustomerID         string
	SubscriptionID     string
	CurrentPeriodEnd   *time.Time
}

// Onboarding reports progress through the first-run wizard.
type Onboarding struct {
	StoreIdentity bool `json:"store_identity"`
	FirstProduct  bool `json:"first_product"`
	Completed     bool `json:"completed"`
}

// Ready reports whether every step is done and the wizard may be closed.
func (o Onboarding) Ready() bool { return o.StoreIdentity && o.FirstProduct }
