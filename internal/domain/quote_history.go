package domain

import "time"

// QuoteHistory is the audit row written for each successful fetch.
// ID and InsertedAt are assigned by the store.
type QuoteHistory struct {
	ID         int64
	Pair       Pair
	Price      float64
	QuotedAt   time.Time
	Source     string
	InsertedAt time.Time
}

// HistoryFromState returns the row recording st's last successful fetch.
// ok is false while st still carries the fallback rate.
func HistoryFromState(st RateState, source string) (h QuoteHistory, ok bool) {
	if st.LastUpdated == nil {
		return QuoteHistory{}, false
	}
	return QuoteHistory{Pair: st.Pair, Price: st.Rate, QuotedAt: *st.LastUpdated, Source: source}, true
}
