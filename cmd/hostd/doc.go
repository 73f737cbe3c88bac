// Package main is the entry point for hostd, the simulated host daemon.
//
// hostd boots a browser-like host from a profile, discovers its
// capabilities, starts the frame-driven game once the host is ready and
// serves an inspector over HTTP and WebSocket.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve the inspector for the default desktop profile
//	./hostd -port 8000
//
//	# Print the capabilities of a profile and exit
//	./hostd -profile safari -probe
//
//	# Force the timer path, colored debug logs
//	./hostd -force-timer -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
