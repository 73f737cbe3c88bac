package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "HOST", "CORS_ORIGINS",
	"HOST_PROFILE", "HOST_PROFILE_DIR", "HOST_REFRESH_HZ",
	"SCHEDULER_FORCE_TIMER", "SCHEDULER_INTERVAL_MS",
	"READINESS_POLL_MS",
	"LOG_LEVEL", "LOG_DEV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		if value, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	// Host config
	assert.Equal(t, "desktop-chrome", cfg.Host.Profile)
	assert.Equal(t, 60, cfg.Host.RefreshHz)

	// Scheduler config
	assert.False(t, cfg.Scheduler.ForceTimer)
	assert.Equal(t, 16*time.Millisecond, cfg.Scheduler.Interval())

	// Readiness config
	assert.Equal(t, 20*time.Millisecond, cfg.Readiness.PollInterval())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefaultWithEmptyEnvironment(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)

	envVars := map[string]string{
		"PORT":                  "9000",
		"HOST":                  "127.0.0.1",
		"CORS_ORIGINS":          "http://devtools.local,http://localhost:3000",
		"HOST_PROFILE":          "cordova-android",
		"HOST_PROFILE_DIR":      "/etc/hostkit/profiles",
		"HOST_REFRESH_HZ":       "120",
		"SCHEDULER_FORCE_TIMER": "true",
		"SCHEDULER_INTERVAL_MS": "33",
		"READINESS_POLL_MS":     "50",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"RATE_LIMIT_RPS":        "500",
		"RATE_LIMIT_BURST":      "1000",
		"RATE_LIMIT_ENABLED":    "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://devtools.local", "http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "cordova-android", cfg.Host.Profile)
	assert.Equal(t, "/etc/hostkit/profiles", cfg.Host.ProfileDir)
	assert.Equal(t, 120, cfg.Host.RefreshHz)
	assert.Equal(t, time.Second/120, cfg.Host.FrameInterval())
	assert.True(t, cfg.Scheduler.ForceTimer)
	assert.Equal(t, 33*time.Millisecond, cfg.Scheduler.Interval())
	assert.Equal(t, 50*time.Millisecond, cfg.Readiness.PollInterval())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero refresh", key: "HOST_REFRESH_HZ", value: "0"},
		{name: "negative interval", key: "SCHEDULER_INTERVAL_MS", value: "-1"},
		{name: "zero poll", key: "READINESS_POLL_MS", value: "0"},
		{name: "non-numeric refresh", key: "HOST_REFRESH_HZ", value: "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestSchedulerConfig(t *testing.T) {
	tests := []struct {
		name      string
		force     string
		interval  string
		wantForce bool
		wantDelay time.Duration
	}{
		{
			name:      "default values",
			wantForce: false,
			wantDelay: 16 * time.Millisecond,
		},
		{
			name:      "forced timer",
			force:     "true",
			wantForce: true,
			wantDelay: 16 * time.Millisecond,
		},
		{
			name:      "zero interval",
			interval:  "0",
			wantForce: false,
			wantDelay: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.force != "" {
				t.Setenv("SCHEDULER_FORCE_TIMER", tt.force)
			}
			if tt.interval != "" {
				t.Setenv("SCHEDULER_INTERVAL_MS", tt.interval)
			}

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, tt.wantForce, cfg.Scheduler.ForceTimer)
			assert.Equal(t, tt.wantDelay, cfg.Scheduler.Interval())
		})
	}
}
