package domain

import "time"

// FallbackRate is used until the first successful fetch.
const FallbackRate = 1589.77

// RateState is a point-in-time view of a synchronized exchange rate.
// Rate is local currency units per one unit of the reference currency and is always > 0.
type RateState struct {
	Pair        Pair       `json:"pair"`
	Rate        float64    `json:"rate"`
	LastUpdated *time.Time `json:"last_updated"`
	Loading     bool       `json:"loading"`
	Error       *string    `json:"error"`
}

func NewRateState(pair Pair, fallback float64) RateState {
	if fallback <= 0 {
		fallback = FallbackRate
	}
	return RateState{Pair: pair, Rate: fallback}
}
