/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for hostkit,
tracking the frame scheduler, the capability registry and the inspector
HTTP surface.

# Features

- Frame metrics (driver invocations and duration per scheduling path)
- Scheduler lifecycle (running gauge, starts per path)
- Readiness metrics (latency from arming, body polls)
- Probe metrics (runs and failures per probe)
- HTTP and WebSocket metrics for the inspector
- System metrics (uptime)

# Usage

	// Create metrics collector on a dedicated registry
	promReg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(promReg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Hand it to the domain components
	registry := capability.New(env, capability.WithMetrics(metrics))
	sched, err := frame.New(timers, lookup, driver, frame.WithMetrics(metrics))

A nil *Metrics is valid and records nothing.

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
*/
package monitoring
