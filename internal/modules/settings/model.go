package settings

import (
	"time"
)

// Known setting keys.
const (
	KeyFreeShippingEnabled = "free_shipping_enabled"
	KeyFreeShippingUntil   = "free_shipping_until"
	KeyAnnouncement        = "announcement"
)

// Values is a resolved key/value set.
type Values map[string]string

// Promotion is the free-shipping promotion as configured for a store.
type Promotion struct {
	Enabled bool       `json:"enabled"`
	Until   *time.Time `json:"until,omitempty"`
}

// Active reports whether shipping is free at now. A promotion without an
// end date runs until it is switched off.
func (p Promotion) Active(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	return p.Until == nil || now.Before(*p.Until)
}
