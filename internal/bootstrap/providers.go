package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ratesync-service/internal/application"
	"ratesync-service/internal/config"
	"ratesync-service/internal/domain"
	"ratesync-service/internal/infrastructure/format"
	"ratesync-service/internal/infrastructure/httpx"
	"ratesync-service/internal/infrastructure/logx"
	"ratesync-service/internal/infrastructure/pg"
	"ratesync-service/internal/infrastructure/provider"
	redisstore "ratesync-service/internal/infrastructure/redis"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required when HISTORY_ENABLED=true")

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvidePair(cfg config.Config) (domain.Pair, error) {
	if !domain.ValidatePair(cfg.RatePair) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedPair, cfg.RatePair)
	}
	return domain.Pair(cfg.RatePair), nil
}

func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, dbURL, pg.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db, cfg.DBConnectWait); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

func ProvideRedisClient(cfg config.Config) (*redis.Client, func()) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }
}

// ProvideIdempotency returns the Redis store when IDEMPOTENCY_BACKEND=redis and a no-op otherwise.
func ProvideIdempotency(cfg config.Config) (application.IdempotencyStore, func()) {
	if cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}, func() {}
	}
	client, cleanup := ProvideRedisClient(cfg)
	return redisstore.New(client, cfg.RedisTTL), cleanup
}

// ProvideRateProvider builds the configured source behind a shared rate limiter
// and call coalescing, so many sessions cost one upstream request per pair.
func ProvideRateProvider(cfg config.Config, log *zap.Logger) application.RateProvider {
	hc := &httpx.Client{
		HTTP:       &http.Client{Timeout: cfg.RequestTimeout},
		Log:        log,
		MaxElapsed: cfg.RequestTimeout,
	}
	var next application.RateProvider
	switch cfg.Provider {
	case "exchangeratesapi":
		next = &provider.ExchangeRatesAPIProvider{
			BaseURL: cfg.ExchangeAPIBase,
			APIKey:  cfg.ExchangeAPIKey,
			Client:  hc,
		}
	case "openerapi":
		next = &provider.OpenERAPIProvider{BaseURL: cfg.OpenERAPIBase, Client: hc}
	default:
		next = provider.NewFake(cfg.FakeRate)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.ProviderRPS), cfg.ProviderBurst)
	return provider.NewGuarded(next, limiter, 2*cfg.RequestTimeout)
}

func ProvideFormatter(cfg config.Config, pair domain.Pair) (application.Formatter, error) {
	return format.NewCurrency(pair.Quote(), cfg.RateLocale)
}

func ProvideSynchronizerFactory(
	cfg config.Config,
	pair domain.Pair,
	rp application.RateProvider,
	f application.Formatter,
	obs application.Observer,
	log *zap.Logger,
) application.SynchronizerFactory {
	return func() *application.RateSynchronizer {
		return application.NewRateSynchronizer(pair, rp, f,
			application.WithPeriod(cfg.RateRefreshPeriod),
			application.WithFallbackRate(cfg.RateFallback),
			application.WithObserver(obs),
			application.WithLogger(log),
		)
	}
}
