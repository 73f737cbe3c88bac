package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Host      HostConfig
	Scheduler SchedulerConfig
	Readiness ReadinessConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds inspector HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins lists browser origins allowed to use the inspector
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// HostConfig selects and paces the simulated host.
type HostConfig struct {
	Profile    string `envconfig:"HOST_PROFILE" default:"desktop-chrome"`
	ProfileDir string `envconfig:"HOST_PROFILE_DIR"`
	RefreshHz  int    `envconfig:"HOST_REFRESH_HZ" default:"60"`
}

// SchedulerConfig holds frame scheduler configuration.
type SchedulerConfig struct {
	ForceTimer bool `envconfig:"SCHEDULER_FORCE_TIMER" default:"false"`
	IntervalMS int  `envconfig:"SCHEDULER_INTERVAL_MS" default:"16"`
}

// ReadinessConfig holds capability registry configuration.
type ReadinessConfig struct {
	PollMS int `envconfig:"READINESS_POLL_MS" default:"20"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Host: HostConfig{
			Profile:   "desktop-chrome",
			RefreshHz: 60,
		},
		Scheduler: SchedulerConfig{
			ForceTimer: false,
			IntervalMS: 16,
		},
		Readiness: ReadinessConfig{
			PollMS: 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.Host.RefreshHz <= 0 {
		return fmt.Errorf("HOST_REFRESH_HZ must be positive, got %d", c.Host.RefreshHz)
	}
	if c.Scheduler.IntervalMS < 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL_MS must not be negative, got %d", c.Scheduler.IntervalMS)
	}
	if c.Readiness.PollMS <= 0 {
		return fmt.Errorf("READINESS_POLL_MS must be positive, got %d", c.Readiness.PollMS)
	}
	return nil
}

// Interval returns the fallback timer delay.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

// PollInterval returns the body poll delay.
func (r ReadinessConfig) PollInterval() time.Duration {
	return time.Duration(r.PollMS) * time.Millisecond
}

// FrameInterval returns the refresh period of the host display.
func (h HostConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(h.RefreshHz)
}
