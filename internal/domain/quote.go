package domain

import "time"

// Quote is a single observation returned by a rate source.
type Quote struct {
	Pair      Pair
	Price     float64
	UpdatedAt time.Time
}
