package worker

import (
	"context"
	"fmt"
	"time"

	"ratesync-service/internal/application"
	"ratesync-service/internal/domain"
	"ratesync-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// RateFeed is the subscription side of a synchronizer.
type RateFeed interface {
	Subscribe() (<-chan domain.RateState, func())
}

var _ application.Worker = (*HistoryRecorder)(nil)

// HistoryRecorder appends one history row per successful fetch seen on Feed.
type HistoryRecorder struct {
	Feed    RateFeed
	Repo    application.HistoryRepo
	Source  string
	Timeout time.Duration
	Log     *zap.Logger

	last time.Time
}

func (w *HistoryRecorder) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = logx.L()
	}
	log = log.With(zap.String("worker", "history"))
	if w.Timeout <= 0 {
		w.Timeout = 5 * time.Second
	}
	states, cancel := w.Feed.Subscribe()
	defer cancel()

	log.Info("history_worker.started")
	for {
		select {
		case <-ctx.Done():
			log.Info("history_worker.stop")
			return
		case st, ok := <-states:
			if !ok {
				log.Info("history_worker.closed")
				return
			}
			w.processOne(ctx, log, st)
		}
	}
}

func (w *HistoryRecorder) processOne(ctx context.Context, log *zap.Logger, st domain.RateState) {
	row, ok := domain.HistoryFromState(st, w.Source)
	if !ok || !row.QuotedAt.After(w.last) {
		return
	}
	w.last = row.QuotedAt

	defer func() {
		if r := recover(); r != nil {
			log.Warn("history_worker.panic", zap.String("r", fmt.Sprint(r)))
		}
	}()
	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Repo.AppendHistory(c, row); err != nil {
		log.Warn("history_worker.append_failed", zap.String("pair", string(row.Pair)), zap.Error(err))
		return
	}
	log.Debug("history_worker.appended", zap.String("pair", string(row.Pair)), zap.Float64("rate", row.Price))
}
