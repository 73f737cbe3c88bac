// Package server assembles hostkit.
//
// NewServer resolves the host profile, builds the event loop, the js host,
// the capability registry with the standard probes, the frame scheduler and
// the game, then mounts the inspector routes:
//
//	GET  /health
//	GET  /capabilities
//	GET  /scheduler
//	POST /scheduler/start
//	POST /scheduler/stop
//	GET  /metrics
//	GET  /metrics/json
//	GET  /stream (WebSocket)
//
// Run boots the host on the loop and serves until its context ends.
package server
