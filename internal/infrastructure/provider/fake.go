package provider

import (
	"context"
	"fmt"

	"ratesync-service/internal/application"
	"ratesync-service/internal/domain"

	"github.com/jonboulle/clockwork"
)

var _ application.RateProvider = (*Fake)(nil)

// Fake quotes a fixed price for any well-formed pair. It backs PROVIDER=fake
// for local runs and demos.
type Fake struct {
	price float64
	clock clockwork.Clock
}

func NewFake(price float64) *Fake { return &Fake{price: price, clock: clockwork.NewRealClock()} }

func (f *Fake) Get(ctx context.Context, pair string) (domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quote{}, err
	}
	if !domain.ValidatePair(pair) {
		return domain.Quote{}, fmt.Errorf("fake: %w: %q", domain.ErrUnsupportedPair, pair)
	}
	return domain.Quote{Pair: domain.Pair(pair), Price: f.price, UpdatedAt: f.clock.Now().UTC()}, nil
}
