package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Gateway is the platform's own provider account: plan subscriptions and
// their webhooks.
type Gateway interface {
	// CheckoutURL creates a hosted checkout and returns its URL.
	CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error)
	// PortalURL returns a self-service billing portal URL for a customer.
	PortalURL(ctx context.Context, customerID, returnURL string) (string, error)
	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// ── Stripe platform adapter ───────────────────────────────────────────────────

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

func (g *StripeGateway) CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.PriceID == "" {
		return "", fmt.Errorf("price id is required")
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.StoreID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"store_id": req.StoreID, "plan": req.Plan},
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("store_id", req.StoreID)
	params.AddMetadata("plan", req.Plan)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (g *StripeGateway) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(ev)
}

func decodeEvent(ev stripe.Event) (Event, error) {
	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}
	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		co := &Checkout{
			SessionID: sess.ID,
			StoreID:   sess.ClientReferenceID,
			Plan:      sess.Metadata["plan"],
		}
		if co.StoreID == "" {
			co.StoreID = sess.Metadata["store_id"]
		}
		if sess.Customer != nil {
			co.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			co.SubscriptionID = sess.Subscription.ID
		}
		out.Checkout = co

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("decode subscription: %w", err)
		}
		s := &Subscription{
			ID:      sub.ID,
			Status:  NormaliseStatus(sub.Status),
			StoreID: sub.Metadata["store_id"],
			Plan:    sub.Metadata["plan"],
		}
		if sub.Customer != nil {
			s.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			s.PriceID = sub.Items.Data[0].Price.ID
		}
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			s.CurrentPeriodEnd = &end
		}
		out.Subscription = s
	}
	return out, nil
}

// ── Stripe merchant adapter ───────────────────────────────────────────────────

// StripeIntents opens payment intents on each merchant's own account, using
// the secret key stored on the store.
type StripeIntents struct {
	backends *stripe.Backends
}

// NewStripeIntents returns an adapter using the default provider backends.
func NewStripeIntents() *StripeIntents { return &StripeIntents{} }

func (s *StripeIntents) CreateIntent(ctx context.Context, secretKey string, amount decimal.Decimal, currency string, metadata map[string]string) (string, string, error) {
	if secretKey == "" {
		return "", "", fmt.Errorf("store has no payment account")
	}
	if !amount.IsPositive() {
		return "", "", fmt.Errorf("amount must be greater than 0")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := client.New(secretKey, s.backends).PaymentIntents.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ID, pi.ClientSecret, nil
}

// MinorUnits converts an amount to the provider's integer minor units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// ── Status Normaliser ─────────────────────────────────────────────────────────
// Maps provider subscription states to the statuses stored on a store.

func NormaliseStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return StatusActive
	case stripe.SubscriptionStatusTrialing:
		return StatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return StatusCancelled
	case stripe.SubscriptionStatusIncomplete, stripe.SubscriptionStatus("paused"):
		return StatusIncomplete
	default:
		return StatusNone
	}
}
