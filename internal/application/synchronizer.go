package application

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"ratesync-service/internal/domain"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const DefaultRefreshPeriod = time.Hour

// RateSynchronizer keeps one best-effort exchange rate fresh.
//
// Every fetch attempt gets a sequence number. An attempt that completes after a
// newer attempt has already been applied is dropped, so a slow fetch never
// overwrites a fresher result. Loading stays true while any attempt is in flight.
type RateSynchronizer struct {
	pair      domain.Pair
	provider  RateProvider
	formatter Formatter
	clock     clockwork.Clock
	period    time.Duration
	fallback  float64
	observer  Observer
	log       *zap.Logger

	mu         sync.RWMutex
	state      domain.RateState
	lastErr    *domain.RateFetchError
	appliedErr *domain.RateFetchError // failure of the last applied attempt
	seq        uint64
	applied    uint64
	inflight   int
	subs       map[uint64]chan domain.RateState
	nextSub    uint64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*RateSynchronizer)

func WithClock(c clockwork.Clock) Option   { return func(s *RateSynchronizer) { s.clock = c } }
func WithPeriod(d time.Duration) Option    { return func(s *RateSynchronizer) { s.period = d } }
func WithFallbackRate(rate float64) Option { return func(s *RateSynchronizer) { s.fallback = rate } }
func WithObserver(o Observer) Option       { return func(s *RateSynchronizer) { s.observer = o } }
func WithLogger(l *zap.Logger) Option      { return func(s *RateSynchronizer) { s.log = l } }

func NewRateSynchronizer(pair domain.Pair, provider RateProvider, formatter Formatter, opts ...Option) *RateSynchronizer {
	s := &RateSynchronizer{
		pair:      pair,
		provider:  provider,
		formatter: formatter,
		fallback:  domain.FallbackRate,
		subs:      map[uint64]chan domain.RateState{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.period <= 0 {
		s.period = DefaultRefreshPeriod
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.With(zap.String("pair", string(pair)))
	s.state = domain.NewRateState(pair, s.fallback)
	return s
}

func (s *RateSynchronizer) Pair() domain.Pair { return s.pair }

// CurrentRate returns a snapshot of the current state.
func (s *RateSynchronizer) CurrentRate() domain.RateState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.state)
}

// LastError returns the failure behind CurrentRate().Error, or nil.
func (s *RateSynchronizer) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr == nil {
		return nil
	}
	return s.lastErr
}

// Convert multiplies amount by the current rate.
func (s *RateSynchronizer) Convert(amount float64) float64 {
	return amount * s.CurrentRate().Rate
}

func (s *RateSynchronizer) Format(amount float64) string {
	return s.formatter.Format(amount)
}

// Refresh runs one fetch attempt and blocks until it completes.
// Failures are recorded in the state, never returned.
func (s *RateSynchronizer) Refresh(ctx context.Context) {
	s.fetch(ctx, s.begin())
}

// RefreshAsync marks the state as loading before it returns and completes the
// attempt in the background. The returned channel is closed on completion.
func (s *RateSynchronizer) RefreshAsync(ctx context.Context) <-chan struct{} {
	id := s.begin()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.fetch(ctx, id)
	}()
	return done
}

// Start performs the startup fetch and refreshes every period until Stop or
// until ctx is canceled. Manual refreshes do not reset the period.
func (s *RateSynchronizer) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	ticker := s.clock.NewTicker(s.period)
	first := s.begin()
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.run(ctx, ticker, first, done)
}

// Stop cancels the periodic refresh and waits for the loop to exit. A fetch in
// flight at that moment is canceled and its outcome discarded. Every
// subscription is closed.
func (s *RateSynchronizer) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	s.closeSubscribers()
}

func (s *RateSynchronizer) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

// Subscribe returns a channel that receives the current state and then every
// change. The buffer holds one state; a slow reader only sees the newest.
func (s *RateSynchronizer) Subscribe() (<-chan domain.RateState, func()) {
	ch := make(chan domain.RateState, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- cloneState(s.state)
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

func (s *RateSynchronizer) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *RateSynchronizer) run(ctx context.Context, ticker clockwork.Ticker, first uint64, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	s.log.Info("rate_sync.started", zap.Duration("period", s.period))
	s.fetch(ctx, first)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("rate_sync.stopped")
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				continue
			}
			s.Refresh(ctx)
		}
	}
}

func (s *RateSynchronizer) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.inflight++
	s.state.Loading = true
	s.state.Error = nil
	s.lastErr = nil
	s.publishLocked()
	return s.seq
}

func (s *RateSynchronizer) fetch(ctx context.Context, id uint64) {
	start := time.Now()
	q, err := s.provider.Get(ctx, string(s.pair))
	if err == nil {
		err = checkQuote(q)
	}
	s.complete(ctx, id, q, err, time.Since(start))
}

func (s *RateSynchronizer) complete(ctx context.Context, id uint64, q domain.Quote, err error, took time.Duration) {
	outcome := FetchSuccess
	s.mu.Lock()
	s.inflight--
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = FetchCanceled
	case id < s.applied:
		outcome = FetchStale
	case err != nil:
		s.applied = id
		fe := &domain.RateFetchError{Pair: s.pair, Err: err}
		msg := fe.Error()
		s.state.Error = &msg
		s.lastErr, s.appliedErr = fe, fe
		outcome = FetchFailure
	default:
		s.applied = id
		now := s.clock.Now()
		s.state.Rate = q.Price
		s.state.LastUpdated = &now
		s.state.Error = nil
		s.lastErr, s.appliedErr = nil, nil
	}
	s.state.Loading = s.inflight > 0
	if !s.state.Loading && (outcome == FetchCanceled || outcome == FetchStale) {
		s.restoreAppliedErrLocked()
	}
	s.publishLocked()
	s.mu.Unlock()

	s.observer.FetchObserved(string(s.pair), outcome, took)
	switch outcome {
	case FetchSuccess:
		s.observer.RateObserved(string(s.pair), q.Price)
		s.log.Info("rate_sync.fetch_done", zap.Uint64("attempt", id), zap.Float64("rate", q.Price))
	case FetchFailure:
		s.log.Warn("rate_sync.fetch_failed", zap.Uint64("attempt", id), zap.Error(err))
	default:
		s.log.Debug("rate_sync.fetch_discarded", zap.Uint64("attempt", id), zap.String("outcome", string(outcome)))
	}
}

// restoreAppliedErrLocked makes Error reflect the last applied outcome again
// after begin cleared it for an attempt that was never applied.
func (s *RateSynchronizer) restoreAppliedErrLocked() {
	s.lastErr = s.appliedErr
	s.state.Error = nil
	if s.appliedErr != nil {
		msg := s.appliedErr.Error()
		s.state.Error = &msg
	}
}

// publishLocked must be called with s.mu held.
func (s *RateSynchronizer) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := cloneState(s.state)
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func checkQuote(q domain.Quote) error {
	if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
		return fmt.Errorf("%w: got %v", domain.ErrInvalidRate, q.Price)
	}
	return nil
}

func cloneState(st domain.RateState) domain.RateState {
	out := st
	if st.LastUpdated != nil {
		t := *st.LastUpdated
		out.LastUpdated = &t
	}
	if st.Error != nil {
		e := *st.Error
		out.Error = &e
	}
	return out
}
