package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"ratesync-service/internal/application"
	"ratesync-service/internal/config"
	httpserver "ratesync-service/internal/infrastructure/http"
	"ratesync-service/internal/infrastructure/metrics"
	"ratesync-service/internal/infrastructure/pg"
	"ratesync-service/internal/infrastructure/worker"
)

// API is the wired HTTP process: router, default synchronizer, session host and its workers.
type API struct {
	Handler http.Handler
	Default *application.RateSynchronizer
	Host    *application.SessionHost
	Workers []application.Worker
}

// WorkerApp runs until ctx is canceled.
type WorkerApp func(ctx context.Context) error

type cleanups []func()

func (c *cleanups) add(fn func()) { *c = append(*c, fn) }

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// InitAPI wires the HTTP process. ctx bounds every synchronizer it creates.
func InitAPI(ctx context.Context, cfg config.Config) (*API, func(), error) {
	var cl cleanups
	log := ProvideLogger()

	pair, err := ProvidePair(cfg)
	if err != nil {
		return nil, nil, err
	}
	f, err := ProvideFormatter(cfg, pair)
	if err != nil {
		return nil, nil, err
	}
	m := metrics.New()
	newSync := ProvideSynchronizerFactory(cfg, pair, ProvideRateProvider(cfg, log), f, m, log)

	def := newSync()
	host := application.NewSessionHost(ctx, newSync,
		application.WithIdleTTL(cfg.SessionIdleTTL),
		application.WithMaxSessions(cfg.MaxSessions),
		application.WithHostLogger(log),
	)
	cl.add(def.Stop)
	cl.add(host.CloseAll)

	srv := httpserver.NewServer(def, host)
	srv.SetMetrics(m.Handler())

	var ready []func(context.Context) error
	idem, closeRedis := ProvideIdempotency(cfg)
	cl.add(closeRedis)
	srv.SetIdempotency(idem)
	if p, ok := idem.(interface{ Ping(context.Context) error }); ok {
		ready = append(ready, p.Ping)
	}

	workers := []application.Worker{
		&worker.SessionReaper{Host: host, Every: cfg.SessionReapEvery, OnSweep: m.SetSessions, Log: log},
	}

	if cfg.HistoryEnabled {
		db, closeDB, err := ProvideDB(ctx, log, cfg)
		if err != nil {
			cl.run()
			return nil, nil, fmt.Errorf("init history: %w", err)
		}
		cl.add(closeDB)
		repo := pg.NewHistoryRepo(db)
		srv.SetHistory(repo)
		ready = append(ready, db.Ping)
		workers = append(workers, &worker.HistoryRecorder{Feed: def, Repo: repo, Source: cfg.Provider, Log: log})
	}

	if len(ready) > 0 {
		srv.SetReadyCheck(func(ctx context.Context) error {
			for _, check := range ready {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return &API{
		Handler: httpserver.NewRouter(srv),
		Default: def,
		Host:    host,
		Workers: workers,
	}, cl.run, nil
}

// InitWorkerApp wires the headless refresher: one synchronizer plus the
// history recorder when history is enabled.
func InitWorkerApp(ctx context.Context, cfg config.Config) (WorkerApp, func(), error) {
	var cl cleanups
	log := ProvideLogger()

	pair, err := ProvidePair(cfg)
	if err != nil {
		return nil, nil, err
	}
	f, err := ProvideFormatter(cfg, pair)
	if err != nil {
		return nil, nil, err
	}
	def := ProvideSynchronizerFactory(cfg, pair, ProvideRateProvider(cfg, log), f, nil, log)()

	var workers []application.Worker
	if cfg.HistoryEnabled {
		db, closeDB, err := ProvideDB(ctx, log, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("init history: %w", err)
		}
		cl.add(closeDB)
		workers = append(workers, &worker.HistoryRecorder{
			Feed: def, Repo: pg.NewHistoryRepo(db), Source: cfg.Provider, Log: log,
		})
	}

	run := func(ctx context.Context) error {
		wg := RunWorkers(ctx, workers)
		def.Start(ctx)
		<-ctx.Done()
		def.Stop()
		wg.Wait()
		return nil
	}
	return run, cl.run, nil
}

// RunWorkers starts every worker on its own goroutine. The returned WaitGroup
// completes once all of them have returned.
func RunWorkers(ctx context.Context, ws []application.Worker) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, w := range ws {
		wg.Add(1)
		go func(w application.Worker) {
			defer wg.Done()
			w.Start(ctx)
		}(w)
	}
	return &wg
}
