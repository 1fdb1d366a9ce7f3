// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-call deadline for ledger store operations.
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`

	// Credit accounting
	InitialCredits int64 `env:"INITIAL_CREDITS" envDefault:"100"`
	RechargeUnit   int64 `env:"RECHARGE_UNIT" envDefault:"10"`

	// Bounded retries for read-only store calls at the gateway boundary.
	// Debit transactions are never retried.
	StoreRetries      int           `env:"STORE_RETRIES" envDefault:"2"`
	StoreRetryBackoff time.Duration `env:"STORE_RETRY_BACKOFF" envDefault:"50ms"`

	// Rate limiting (orthogonal to credit accounting)
	RateLimitEnabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RateLimitBurst     int  `env:"RATE_LIMIT_BURST" envDefault:"20"`
	SignInRPS          int  `env:"SIGNIN_RPS" envDefault:"5"`
	SignInBurst        int  `env:"SIGNIN_BURST" envDefault:"10"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks accounting parameters that env tags cannot express.
func (c *Config) Validate() error {
	if c.InitialCredits < 0 {
		return fmt.Errorf("INITIAL_CREDITS must be >= 0, got %d", c.InitialCredits)
	}
	if c.RechargeUnit <= 0 {
		return fmt.Errorf("RECHARGE_UNIT must be > 0, got %d", c.RechargeUnit)
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
