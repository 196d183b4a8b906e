package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all node configuration.
type Config struct {
	// Node identity
	ILPAddress          string `env:"ILP_ADDRESS,required"`
	AdminToken          string `env:"ADMIN_TOKEN,required"`
	ServerSecret        string `env:"SERVER_SECRET,required"` // hex, used for SPSP shared-secret derivation
	DefaultSPSPAccount  string `env:"DEFAULT_SPSP_ACCOUNT" envDefault:""`
	DefaultRouteAccount string `env:"DEFAULT_ROUTE_ACCOUNT" envDefault:""`

	// Redis ledger store
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// Optional settlement audit archive; empty disables it.
	DatabaseURL      string `env:"DATABASE_URL" envDefault:""`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	// HTTP server
	HTTPPort            string        `env:"HTTP_PORT" envDefault:"7770"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Settlement worker
	SettlementPollTimeout   time.Duration `env:"SETTLEMENT_POLL_TIMEOUT" envDefault:"2s"`
	SettlementEngineTimeout time.Duration `env:"SETTLEMENT_ENGINE_TIMEOUT" envDefault:"10s"`
	ReconcileInterval       time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	IdempotencyTTL          time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Per-IP rate limit on the public HTTP surface
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"100"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"200"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
