/*
Package frame drives a per-frame callback with whichever scheduling
primitive the host offers.

The preferred primitive is a display-synchronized frame request, found once
at construction by trying VendorNames in order. Hosts without one, or
owners that force it, get the timer path: a timeout rescheduled after every
frame with a delay read fresh from the owner.

Each frame callback runs the driver first and only then issues the next
request, and only if the same run is still active. A driver that calls Stop
therefore prevents any further request, and a driver that restarts the
scheduler leaves exactly one request pending.

	sched, err := frame.New(env.Timers(), env, game.Update,
		frame.WithInterval(game.TimeToCall))
	if err != nil {
		return err // host has no timers at all
	}
	sched.Start()
*/
package frame
