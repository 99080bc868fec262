package main

import (
	"context"
	"errors"
	"net/http"
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
	logger := logx.L()
	addr := ":" + cfg.Port

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, cleanup, err := bootstrap.InitAPI(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	api.Default.Start(ctx)
	workers := bootstrap.RunWorkers(ctx, api.Workers)

	server := &http.Server{
		Addr:              addr,
		Handler:           api.Handler,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr), zap.String("pair", cfg.RatePair))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	workers.Wait()
	logger.Info("server stopped")
}
