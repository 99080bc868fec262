package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ratesync-service/internal/domain"
)

type result struct {
	price float64
	err   error
}

// scriptedProvider returns results in order, repeating the last one.
type scriptedProvider struct {
	mu      sync.Mutex
	results []result
	calls   atomic.Int64
}

func (p *scriptedProvider) Get(_ context.Context, pair string) (domain.Quote, error) {
	n := int(p.calls.Add(1)) - 1
	p.mu.Lock()
	r := result{price: 1600}
	if len(p.results) > 0 {
		if n >= len(p.results) {
			n = len(p.results) - 1
		}
		r = p.results[n]
	}
	p.mu.Unlock()
	if r.err != nil {
		return domain.Quote{}, r.err
	}
	return domain.Quote{Pair: domain.Pair(pair), Price: r.price, UpdatedAt: time.Now()}, nil
}

// gatedProvider blocks call i until gates[i] delivers its result or ctx ends.
type gatedProvider struct {
	gates []chan result
	calls atomic.Int64
}

func newGatedProvider(n int) *gatedProvider {
	p := &gatedProvider{}
	for i := 0; i < n; i++ {
		p.gates = append(p.gates, make(chan result, 1))
	}
	return p
}

func (p *gatedProvider) Get(ctx context.Context, pair string) (domain.Quote, error) {
	i := int(p.calls.Add(1)) - 1
	if i >= len(p.gates) {
		return domain.Quote{}, fmt.Errorf("unexpected call %d", i)
	}
	select {
	case <-ctx.Done():
		return domain.Quote{}, ctx.Err()
	case r := <-p.gates[i]:
		if r.err != nil {
			return domain.Quote{}, r.err
		}
		return domain.Quote{Pair: domain.Pair(pair), Price: r.price, UpdatedAt: time.Now()}, nil
	}
}

type fakeFormatter struct{}

func (fakeFormatter) Format(amount float64) string { return fmt.Sprintf("ARS %.2f", amount) }

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []FetchOutcome
	rates    []float64
}

func (o *recordingObserver) FetchObserved(_ string, outcome FetchOutcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) RateObserved(_ string, rate float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rates = append(o.rates, rate)
}

func (o *recordingObserver) snapshot() []FetchOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]FetchOutcome(nil), o.outcomes...)
}
