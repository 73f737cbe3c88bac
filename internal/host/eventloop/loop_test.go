package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostkit/internal/host"
)

func startLoop(t *testing.T) (*Loop, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	loop := New(Options{Clock: mock, FrameInterval: 16 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})

	// Do returning proves Run is inside its select loop
	require.NoError(t, loop.Do(context.Background(), func() {}))
	return loop, mock
}

func TestDoRunsOnLoop(t *testing.T) {
	loop, _ := startLoop(t)

	var value int
	require.NoError(t, loop.Do(context.Background(), func() { value = 42 }))
	assert.Equal(t, 42, value)
}

func TestDoAfterStop(t *testing.T) {
	loop := New(Options{Clock: clock.NewMock()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, loop.Run(ctx))

	<-loop.Done()
	assert.ErrorIs(t, loop.Do(context.Background(), func() {}), ErrStopped)

	// Post must not block once stopped
	loop.Post(func() {})
}

func TestRunTwice(t *testing.T) {
	loop, _ := startLoop(t)
	assert.ErrorIs(t, loop.Run(context.Background()), ErrAlreadyRunning)
}

func TestSetTimeoutFiresAfterDelay(t *testing.T) {
	loop, mock := startLoop(t)

	var fired atomic.Int32
	require.NoError(t, loop.Do(context.Background(), func() {
		loop.SetTimeout(func() { fired.Add(1) }, 20*time.Millisecond)
	}))

	mock.Add(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	mock.Add(10 * time.Millisecond)
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	var pending int
	require.NoError(t, loop.Do(context.Background(), func() { pending = loop.PendingTimers() }))
	assert.Zero(t, pending)
}

func TestClearTimeoutCancels(t *testing.T) {
	loop, mock := startLoop(t)

	var fired atomic.Int32
	require.NoError(t, loop.Do(context.Background(), func() {
		h := loop.SetTimeout(func() { fired.Add(1) }, 5*time.Millisecond)
		loop.ClearTimeout(h)
		loop.ClearTimeout(h)
	}))

	mock.Add(50 * time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() != 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestRequestAnimationFrame(t *testing.T) {
	loop, mock := startLoop(t)

	var stamp atomic.Value
	var cancelled atomic.Int32
	require.NoError(t, loop.Do(context.Background(), func() {
		loop.RequestAnimationFrame(func(ts float64) { stamp.Store(ts) })
		h := loop.RequestAnimationFrame(func(float64) { cancelled.Add(1) })
		loop.CancelAnimationFrame(h)
	}))

	mock.Add(16 * time.Millisecond)
	require.Eventually(t, func() bool { return stamp.Load() != nil }, time.Second, 5*time.Millisecond)

	assert.GreaterOrEqual(t, stamp.Load().(float64), 16.0)
	assert.Zero(t, cancelled.Load())
}

func TestFrameRequestsWaitForNextTick(t *testing.T) {
	loop, mock := startLoop(t)

	var calls atomic.Int32
	var tick func(float64)
	tick = func(float64) {
		calls.Add(1)
		loop.RequestAnimationFrame(tick)
	}
	require.NoError(t, loop.Do(context.Background(), func() { loop.RequestAnimationFrame(tick) }))

	mock.Add(16 * time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	mock.Add(16 * time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCancelFrameFromSameBatch(t *testing.T) {
	loop, mock := startLoop(t)

	var first, second atomic.Int32
	require.NoError(t, loop.Do(context.Background(), func() {
		var later host.Handle
		loop.RequestAnimationFrame(func(float64) {
			first.Add(1)
			loop.CancelAnimationFrame(later)
		})
		later = loop.RequestAnimationFrame(func(float64) { second.Add(1) })
	}))

	mock.Add(16 * time.Millisecond)
	require.Eventually(t, func() bool { return first.Load() == 1 }, time.Second, 5*time.Millisecond)

	// a second tick proves the cancelled request is gone, not deferred
	mock.Add(16 * time.Millisecond)
	require.Eventually(t, func() bool {
		var n uint64
		_ = loop.Do(context.Background(), func() { n = loop.FrameCount() })
		return n >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, second.Load())
}

func TestPanickingTaskKeepsLoopAlive(t *testing.T) {
	loop, _ := startLoop(t)

	loop.Post(func() { panic("boom") })

	var ran bool
	require.NoError(t, loop.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestDoHonoursContext(t *testing.T) {
	loop, _ := startLoop(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	loop.Post(func() { <-release })
	defer close(release)

	assert.ErrorIs(t, loop.Do(ctx, func() {}), context.DeadlineExceeded)
}
