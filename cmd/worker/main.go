package main

import (
	"context"
	"os/signal"
	"syscall"

	"ratesync-service/internal/bootstrap"
	"ratesync-service/internal/config"
	"ratesync-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	cfg := config.MustLoad()
	logx.SetLevel(cfg.LogLevel)
	log := logx.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, cleanup, err := bootstrap.InitWorkerApp(ctx, cfg)
	if err != nil {
		log.Fatal("init worker", zap.Error(err))
	}
	defer cleanup()

	log.Info("worker started", zap.String("pair", cfg.RatePair), zap.Duration("period", cfg.RateRefreshPeriod))
	if err := run(ctx); err != nil {
		log.Fatal("worker exited", zap.Error(err))
	}
	log.Info("worker stopped")
}
