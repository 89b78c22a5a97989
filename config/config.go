package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT, default=8080"`
	Env       string `env:"ENV, default=development"`
	JWTSecret string `env:"JWT_SECRET, default=aklyplus_dev_secret"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// StoreBackend selects the backing store: sqlite, redis or memory.
	StoreBackend string `env:"STORE_BACKEND, default=sqlite"`
	SQLitePath   string `env:"SQLITE_PATH, default=aklyplus.db"`
	// CacheDir holds the offline snapshot cache used when the backing
	// store is unreachable.
	CacheDir string `env:"CACHE_DIR, default=.akly-cache"`

	// BillingFee is the per-order fee (minor currency units) accrued to a
	// restaurant's debt on every accepted order.
	BillingFee int `env:"BILLING_FEE, default=250"`

	Redis RedisConfig
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Development reports whether the service runs in development mode
// (pretty logs, gin debug mode).
func (c *Config) Development() bool {
	return c.Env == "development"
}
