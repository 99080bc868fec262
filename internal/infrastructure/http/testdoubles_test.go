package httpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ratesync-service/internal/domain"
)

type stubProvider struct {
	mu    sync.Mutex
	price float64
	err   error
}

func (p *stubProvider) set(price float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.price, p.err = price, err
}

func (p *stubProvider) Get(_ context.Context, pair string) (domain.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return domain.Quote{}, p.err
	}
	return domain.Quote{Pair: domain.Pair(pair), Price: p.price, UpdatedAt: time.Now()}, nil
}

type stubFormatter struct{}

func (stubFormatter) Format(amount float64) string { return fmt.Sprintf("ARS %.2f", amount) }

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (m *memIdempotency) TryReserve(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

type memHistory struct {
	rows []domain.QuoteHistory
	err  error
}

func (m *memHistory) AppendHistory(_ context.Context, h domain.QuoteHistory) error {
	m.rows = append(m.rows, h)
	return nil
}

func (m *memHistory) ListHistory(_ context.Context, pair string, limit int) ([]domain.QuoteHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.QuoteHistory
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if string(m.rows[i].Pair) == pair {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

var errDown = errors.New("network down")
