package application

import (
	"context"
	"time"

	"ratesync-service/internal/domain"
)

// RateProvider is the external rate source. Errors must describe the failure.
type RateProvider interface {
	Get(ctx context.Context, pair string) (domain.Quote, error)
}

// Formatter renders an amount as a localized currency string.
type Formatter interface {
	Format(amount float64) string
}

type HistoryRepo interface {
	AppendHistory(ctx context.Context, h domain.QuoteHistory) error
	ListHistory(ctx context.Context, pair string, limit int) ([]domain.QuoteHistory, error)
}

type FetchOutcome string

const (
	FetchSuccess  FetchOutcome = "success"
	FetchFailure  FetchOutcome = "failure"
	FetchStale    FetchOutcome = "stale"
	FetchCanceled FetchOutcome = "canceled"
)

// Observer receives fetch outcomes, typically for metrics.
type Observer interface {
	FetchObserved(pair string, outcome FetchOutcome, took time.Duration)
	RateObserved(pair string, rate float64)
}

type noopObserver struct{}

func (noopObserver) FetchObserved(string, FetchOutcome, time.Duration) {}
func (noopObserver) RateObserved(string, float64)                      {}
