package provider

import (
	"context"
	"time"

	"ratesync-service/internal/application"
	"ratesync-service/internal/domain"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Guarded protects an upstream rate source shared by many session
// synchronizers: concurrent requests for the same pair share one upstream
// call, and upstream calls are rate limited.
type Guarded struct {
	next    application.RateProvider
	limiter *rate.Limiter
	timeout time.Duration
	group   singleflight.Group
}

var _ application.RateProvider = (*Guarded)(nil)

// NewGuarded wraps next. A nil limiter disables rate limiting. timeout bounds
// each shared upstream call, including the wait for the limiter.
func NewGuarded(next application.RateProvider, limiter *rate.Limiter, timeout time.Duration) *Guarded {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Guarded{next: next, limiter: limiter, timeout: timeout}
}

func (g *Guarded) Get(ctx context.Context, pair string) (domain.Quote, error) {
	// The shared call must not die with whichever caller happened to start it.
	ch := g.group.DoChan(pair, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		if g.limiter != nil {
			if err := g.limiter.Wait(shared); err != nil {
				return domain.Quote{}, err
			}
		}
		return g.next.Get(shared, pair)
	})
	select {
	case <-ctx.Done():
		return domain.Quote{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Quote{}, res.Err
		}
		return res.Val.(domain.Quote), nil
	}
}
