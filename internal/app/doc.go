// Package app owns the frame-driven application.
//
// A Game waits for the capability registry to report the host ready, then
// starts the frame scheduler and advances its simulation once per frame.
// Like the registry and the scheduler it is confined to the host loop
// goroutine; the inspector reaches it through eventloop.Do.
//
// Example Usage:
//
//	game := app.New(registry, app.WithLogger(log))
//	sched, err := frame.New(rt.Timers(), rt, game.Step)
//	if err != nil {
//	    return err
//	}
//	game.Attach(sched)
//	game.Launch()
package app
