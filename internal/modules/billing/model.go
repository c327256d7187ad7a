package billing

import "time"

// Plan is a platform subscription tier.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// Paid reports whether the plan is sold through the payment provider.
func (p Plan) Paid() bool { return p == PlanPro || p == PlanBusiness }

func (p Plan) Valid() bool { return p == PlanFree || p.Paid() }

// CheckoutRequest is the payload for starting a plan checkout.
type CheckoutRequest struct {
	StoreID string `json:"store_id"`
	Plan    string `json:"plan"`
}

// PortalRequest is the payload for opening the billing portal.
type PortalRequest struct {
	StoreID string `json:"store_id"`
}

// SessionResponse carries the hosted page the dashboard redirects to.
type SessionResponse struct {
	URL string `json:"url"`
}

// Status is the billing state reported to the dashboard.
type Status struct {
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	HasCustomer        bool       `json:"has_customer"`
	Enabled            bool       `json:"enabled"`
	// PublishableKey is the platform's client-side provider key.
	PublishableKey string `json:"publishable_key,omitempty"`
}
