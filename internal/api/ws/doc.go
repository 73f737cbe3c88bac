// Package ws streams host state to inspector clients over WebSocket.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot: Request the current capability report
//
// Message Types (Server → Client):
//   - system: Connection accepted
//   - ready: Capability report, sent once the registry is ready
//   - frames: Scheduler and game stats, sent periodically after ready
//   - capabilities: Reply to snapshot
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(ws.Deps{Exec: loop, Registry: reg, Scheduler: sched})
//	router.GET("/stream", handler.HandleConnection)
package ws
