/*
Package eventloop provides the single goroutine every host component runs on.

A Loop owns a task queue, a set of timeouts and a list of frame requests.
Timeouts are backed by a clock.Clock so tests can drive them with
clock.NewMock; frames are released by a ticker on the same clock at the
configured refresh interval.

SetTimeout, ClearTimeout, RequestAnimationFrame and CancelAnimationFrame
must be called on the loop goroutine. Other goroutines use Post or Do:

	err := loop.Do(ctx, func() {
		running = scheduler.IsRunning()
	})
*/
package eventloop
