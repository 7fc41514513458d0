// Package config loads process configuration from the environment.
// Per-guild settings (rating thresholds, reply preferences) are not
// here: those belong to the backend and arrive as opaque snapshots.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process-level configuration for the bot.
type Config struct {
	// BackendURL is the base URL of the notes backend.
	BackendURL string `env:"NOTEWARDEN_BACKEND_URL" envDefault:"http://localhost:8090"`
	// BackendTimeout bounds each backend call.
	BackendTimeout time.Duration `env:"NOTEWARDEN_BACKEND_TIMEOUT" envDefault:"10s"`

	// ListenAddr is where the HTTP server (surface bridge + ops
	// endpoints) listens.
	ListenAddr string `env:"NOTEWARDEN_LISTEN_ADDR" envDefault:":8088"`
	// SurfaceURL is the base URL of the rendering surface bridge that
	// receives render/update/modal requests.
	SurfaceURL string `env:"NOTEWARDEN_SURFACE_URL" envDefault:"http://localhost:8089"`

	// DataDir, when set, enables the persistent session store. Empty
	// means sessions live in memory and die with the process.
	DataDir string `env:"NOTEWARDEN_DATA_DIR"`

	// RateLimitMax actions per RateLimitWindow per user for component
	// clicks.
	RateLimitMax    int           `env:"NOTEWARDEN_RATE_LIMIT_MAX" envDefault:"10"`
	RateLimitWindow time.Duration `env:"NOTEWARDEN_RATE_LIMIT_WINDOW" envDefault:"30s"`
	// CommandCooldown is the minimum gap between command invocations
	// per user.
	CommandCooldown time.Duration `env:"NOTEWARDEN_COMMAND_COOLDOWN" envDefault:"15s"`

	// PageSize is the number of items per rendered page.
	PageSize int `env:"NOTEWARDEN_PAGE_SIZE" envDefault:"5"`

	// CollectorTimeout is the time box on a flow's listener. TTLs keep
	// the confirm < pagination < draft ordering.
	CollectorTimeout time.Duration `env:"NOTEWARDEN_COLLECTOR_TIMEOUT" envDefault:"3m"`
	TTLConfirm       time.Duration `env:"NOTEWARDEN_TTL_CONFIRM" envDefault:"60s"`
	TTLPagination    time.Duration `env:"NOTEWARDEN_TTL_PAGINATION" envDefault:"5m"`
	TTLDraft         time.Duration `env:"NOTEWARDEN_TTL_DRAFT" envDefault:"15m"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL must be set")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.RateLimitMax < 1 {
		return fmt.Errorf("rate limit max must be positive, got %d", c.RateLimitMax)
	}
	if !(c.TTLConfirm <= c.TTLPagination && c.TTLPagination <= c.TTLDraft) {
		return fmt.Errorf("session TTLs must keep confirm <= pagination <= draft ordering")
	}
	return nil
}
