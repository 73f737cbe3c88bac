// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Log Levels:
//   - Debug: Verbose debugging information
//   - Info: General informational messages
//   - Warn: Warning messages
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// Subsystems log through Component, which names the child logger
// ("capability", "frame", "game", "http") so output can be filtered per
// subsystem.
//
// Example Usage:
//
//	cfg := logging.DefaultConfig()
//	cfg.Level = "debug"
//	logger, err := logging.New(cfg)
//	if err != nil {
//		return err
//	}
//	logger.Info("Host loop starting", zap.Int("refresh_hz", 60))
//	logger.Component("registry").Warn("Probe failed", zap.Error(err))
package logging
