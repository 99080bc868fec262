package application

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// SynchronizerFactory builds a fresh, not yet started synchronizer.
type SynchronizerFactory func() *RateSynchronizer

type session struct {
	sync     *RateSynchronizer
	lastSeen time.Time
}

// SessionHost owns one synchronizer per storefront session. Opening a session
// starts its synchronizer; closing or reaping it stops the synchronizer.
type SessionHost struct {
	base    context.Context
	newSync SynchronizerFactory
	clock   clockwork.Clock
	idleTTL time.Duration
	max     int
	log     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type HostOption func(*SessionHost)

func WithHostClock(c clockwork.Clock) HostOption { return func(h *SessionHost) { h.clock = c } }
func WithIdleTTL(d time.Duration) HostOption     { return func(h *SessionHost) { h.idleTTL = d } }
func WithMaxSessions(n int) HostOption           { return func(h *SessionHost) { h.max = n } }
func WithHostLogger(l *zap.Logger) HostOption    { return func(h *SessionHost) { h.log = l } }

// NewSessionHost creates a host. base bounds the lifetime of every session
// synchronizer; it must outlive individual requests.
func NewSessionHost(base context.Context, newSync SynchronizerFactory, opts ...HostOption) *SessionHost {
	h := &SessionHost{
		base:     base,
		newSync:  newSync,
		idleTTL:  30 * time.Minute,
		sessions: map[string]*session{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

// Open returns the synchronizer of session id, creating and starting it on first use.
func (h *SessionHost) Open(id string) (*RateSynchronizer, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		s.lastSeen = h.clock.Now()
		return s.sync, nil
	}
	if h.max > 0 && len(h.sessions) >= h.max {
		return nil, ErrTooManySessions
	}
	rs := h.newSync()
	rs.Start(h.base)
	h.sessions[id] = &session{sync: rs, lastSeen: h.clock.Now()}
	h.log.Info("session.opened", zap.String("session_id", id), zap.Int("sessions", len(h.sessions)))
	return rs, nil
}

// Get returns an open session's synchronizer and marks the session as active.
func (h *SessionHost) Get(id string) (*RateSynchronizer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastSeen = h.clock.Now()
	return s.sync, nil
}

func (h *SessionHost) Close(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.sync.Stop()
	h.log.Info("session.closed", zap.String("session_id", id))
	return nil
}

// CloseIdle stops every session not seen within the idle TTL and returns how many were closed.
func (h *SessionHost) CloseIdle() int {
	cutoff := h.clock.Now().Add(-h.idleTTL)
	var idle []*session
	h.mu.Lock()
	for id, s := range h.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()
	for _, s := range idle {
		s.sync.Stop()
	}
	if len(idle) > 0 {
		h.log.Info("session.reaped", zap.Int("closed", len(idle)))
	}
	return len(idle)
}

func (h *SessionHost) CloseAll() {
	h.mu.Lock()
	all := h.sessions
	h.sessions = map[string]*session{}
	h.mu.Unlock()
	for _, s := range all {
		s.sync.Stop()
	}
}

func (h *SessionHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
