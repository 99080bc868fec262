package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	// Common
	Env      string `env:"ENV" env-default:"local"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	// API
	Port            string        `env:"PORT" env-default:"8080" validate:"required,numeric"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"5s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s" validate:"gt=0"`
	// Rate synchronizer
	RatePair          string        `env:"RATE_PAIR" env-default:"USD/ARS" validate:"required"`
	RateFallback      float64       `env:"RATE_FALLBACK" env-default:"1589.77" validate:"gt=0"`
	RateRefreshPeriod time.Duration `env:"RATE_REFRESH_PERIOD" env-default:"1h" validate:"gt=0"`
	RateLocale        string        `env:"RATE_LOCALE" env-default:"es-AR" validate:"required"`
	// Provider
	Provider        string  `env:"PROVIDER" env-default:"fake" validate:"oneof=fake exchangeratesapi openerapi"`
	FakeRate        float64 `env:"FAKE_RATE" env-default:"1589.77" validate:"gt=0"`
	ExchangeAPIBase string  `env:"EXCHANGE_API_BASE" env-default:"https://api.exchangeratesapi.io"`
	ExchangeAPIKey  string  `env:"EXCHANGE_API_KEY"`
	OpenERAPIBase   string  `env:"OPENER_API_BASE" env-default:"https://open.er-api.com"`
	ProviderRPS     float64 `env:"PROVIDER_RPS" env-default:"1" validate:"gt=0"`
	ProviderBurst   int     `env:"PROVIDER_BURST" env-default:"5" validate:"gt=0"`
	// Sessions
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" env-default:"30m" validate:"gt=0"`
	SessionReapEvery time.Duration `env:"SESSION_REAP_EVERY" env-default:"1m" validate:"gt=0"`
	MaxSessions      int           `env:"MAX_SESSIONS" env-default:"1000" validate:"gte=0"`
	// History (Postgres)
	HistoryEnabled bool          `env:"HISTORY_ENABLED" env-default:"false"`
	DatabaseURL    string        `env:"DATABASE_URL" validate:"required_if=HistoryEnabled true"`
	DBMaxConns     int32         `env:"DB_MAX_CONNS" env-default:"5" validate:"gt=0"`
	DBMinConns     int32         `env:"DB_MIN_CONNS" env-default:"1" validate:"gte=0,ltefield=DBMaxConns"`
	DBConnectWait  time.Duration `env:"DB_CONNECT_WAIT" env-default:"15s" validate:"gt=0"`
	// Redis (idempotency)
	IdempotencyBackend string        `env:"IDEMPOTENCY_BACKEND" env-default:"none" validate:"oneof=redis none"`
	RedisAddr          string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB" env-default:"0"`
	RedisTTL           time.Duration `env:"IDEMPOTENCY_TTL" env-default:"24h" validate:"gt=0"`
}

var validate = validator.New()

// Load reads environment variables, applies defaults and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load for process entry points.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
