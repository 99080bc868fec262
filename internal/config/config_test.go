package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "USD/ARS", cfg.RatePair)
	require.InDelta(t, 1589.77, cfg.RateFallback, 1e-9)
	require.Equal(t, time.Hour, cfg.RateRefreshPeriod)
	require.Equal(t, "fake", cfg.Provider)
	require.Equal(t, "none", cfg.IdempotencyBackend)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_PAIR", "EUR/USD")
	t.Setenv("RATE_REFRESH_PERIOD", "15m")
	t.Setenv("PROVIDER", "openerapi")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "EUR/USD", cfg.RatePair)
	require.Equal(t, 15*time.Minute, cfg.RateRefreshPeriod)
	require.Equal(t, "openerapi", cfg.Provider)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("PROVIDER", "carrier-pigeon")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_HistoryNeedsDatabaseURL(t *testing.T) {
	t.Setenv("HISTORY_ENABLED", "true")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_PoolSizing(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "2")
	t.Setenv("DB_MIN_CONNS", "3")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DB_MIN_CONNS", "2")
	t.Setenv("DB_CONNECT_WAIT", "3s")
	cfg, err := Load()
	require.NoError(t, err)
	require.EqualValues(t, 2, cfg.DBMaxConns)
	require.Equal(t, 3*time.Second, cfg.DBConnectWait)
}
