package worker

import (
	"context"
	"time"

	"ratesync-service/internal/application"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// IdleCloser is satisfied by *application.SessionHost.
type IdleCloser interface {
	CloseIdle() int
	Len() int
}

var _ application.Worker = (*SessionReaper)(nil)

// SessionReaper periodically closes idle sessions.
type SessionReaper struct {
	Host  IdleCloser
	Every time.Duration
	Clock clockwork.Clock
	// OnSweep, if set, receives the number of sessions left open after each sweep.
	OnSweep func(open int)
	Log     *zap.Logger
}

func (w *SessionReaper) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Every <= 0 {
		w.Every = time.Minute
	}
	if w.Clock == nil {
		w.Clock = clockwork.NewRealClock()
	}

	t := w.Clock.NewTicker(w.Every)
	defer t.Stop()

	log.Info("session_reaper_started", zap.Duration("every", w.Every))
	for {
		select {
		case <-ctx.Done():
			log.Info("session_reaper_stopped")
			return
		case <-t.Chan():
			w.tick(log)
		}
	}
}

func (w *SessionReaper) tick(log *zap.Logger) {
	closed := w.Host.CloseIdle()
	open := w.Host.Len()
	if closed > 0 {
		log.Info("sessions_reaped", zap.Int("closed", closed), zap.Int("open", open))
	}
	if w.OnSweep != nil {
		w.OnSweep(open)
	}
}
