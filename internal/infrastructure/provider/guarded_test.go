package provider

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ratesync-service/internal/domain"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type slowProvider struct {
	calls   atomic.Int64
	release chan struct{}
}

func (p *slowProvider) Get(_ context.Context, pair string) (domain.Quote, error) {
	p.calls.Add(1)
	<-p.release
	return domain.Quote{Pair: domain.Pair(pair), Price: 1600, UpdatedAt: time.Now()}, nil
}

func TestGuarded_CoalescesConcurrentCalls(t *testing.T) {
	next := &slowProvider{release: make(chan struct{})}
	g := NewGuarded(next, nil, time.Second)

	var wg sync.WaitGroup
	prices := make(chan float64, 5)
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := g.Get(context.Background(), "USD/ARS")
			if err != nil {
				errs <- err
				return
			}
			prices <- q.Price
		}()
	}
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()
	close(prices)
	close(errs)

	require.Empty(t, errs)
	for p := range prices {
		require.InDelta(t, 1600.0, p, 1e-9)
	}
	require.EqualValues(t, 1, next.calls.Load())
}

func TestGuarded_CallerCancelDoesNotBlock(t *testing.T) {
	next := &slowProvider{release: make(chan struct{})}
	defer close(next.release)
	g := NewGuarded(next, rate.NewLimiter(rate.Inf, 1), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Get(ctx, "USD/ARS")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGuarded_RateLimited(t *testing.T) {
	g := NewGuarded(NewFake(1600), rate.NewLimiter(rate.Every(time.Hour), 1), time.Second)

	_, err := g.Get(context.Background(), "USD/ARS")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.Get(ctx, "USD/ARS")
	require.Error(t, err)
}
