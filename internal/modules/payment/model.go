package payment

import (
	"errors"
	"time"
)

// Provider event types the platform consumes.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Subscription statuses as recorded on a store.
const (
	StatusNone       = "none"
	StatusActive     = "active"
	StatusTrialing   = "trialing"
	StatusPastDue    = "past_due"
	StatusIncomplete = "incomplete"
	StatusCancelled  = "cancelled"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event is a verified provider webhook, reduced to the fields billing needs.
// At most one of Checkout and Subscription is set; both are nil for event
// types the platform ignores.
type Event struct {
	ID           string
	Type         string
	Checkout     *Checkout
	Subscription *Subscription
}

// Checkout is a completed subscription checkout.
type Checkout struct {
	SessionID      string
	CustomerID     string
	SubscriptionID string
	StoreID        string
	Plan           string
}

// Subscription is the provider's view of a store subscription.
type Subscription struct {
	ID               string
	CustomerID       string
	Status           string
	PriceID          string
	StoreID          string
	Plan             string
	CurrentPeriodEnd *time.Time
}

// CheckoutRequest opens a hosted subscription checkout for one store.
type CheckoutRequest struct {
	StoreID       string
	Plan          string
	PriceID       string
	CustomerID    string // reused when the store already has one
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}
