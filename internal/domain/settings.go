package domain

import "time"

// Settings holds the admin-configurable runtime parameters shared by the
// storefront. The exchange rate is the only value the pricing paths read; it
// is always passed into the engine as a call-time snapshot, never cached
// inside the engine itself.
type Settings struct {
	// ExchangeRate is the TL amount per 1 USD. Always positive.
	ExchangeRate float64
	// RateSource names where the rate came from (manual, feed name).
	RateSource string
	UpdatedAt  time.Time
	UpdatedBy  string
}
