// Package config provides 12-factor configuration management for hostkit.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/hostd can override environment variables.
//
// Configuration Sections:
//   - Server: inspector HTTP settings (port, host)
//   - Host: simulated host profile and display refresh rate
//   - Scheduler: forced timer path and fallback interval
//   - Readiness: body poll interval for the capability registry
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting for the inspector
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Inspector on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - HOST_PROFILE, HOST_PROFILE_DIR, HOST_REFRESH_HZ
//   - SCHEDULER_FORCE_TIMER, SCHEDULER_INTERVAL_MS
//   - READINESS_POLL_MS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
