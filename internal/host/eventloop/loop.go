package eventloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/host"
)

var (
	// ErrStopped is returned by Do when the loop is not running anymore.
	ErrStopped = errors.New("event loop stopped")
	// ErrAlreadyRunning is returned by Run when called twice.
	ErrAlreadyRunning = errors.New("event loop already running")
)

const defaultQueueSize = 256

// Options configures a Loop.
type Options struct {
	// Clock drives timers and frames. Defaults to the wall clock.
	Clock clock.Clock
	// FrameInterval is the simulated display refresh period.
	FrameInterval time.Duration
	// QueueSize bounds the number of posted tasks waiting to run.
	QueueSize int
	Logger    *zap.Logger
}

// DefaultOptions returns a 60Hz loop on the wall clock.
func DefaultOptions() Options {
	return Options{
		Clock:         clock.New(),
		FrameInterval: time.Second / 60,
		QueueSize:     defaultQueueSize,
		Logger:        zap.NewNop(),
	}
}

type frameRequest struct {
	handle host.Handle
	fn     func(float64)
}

// Loop is a single-goroutine cooperative event loop. Posted tasks, timer
// callbacks and frame callbacks all run on the goroutine that called Run.
type Loop struct {
	clock         clock.Clock
	origin        time.Time
	frameInterval time.Duration
	log           *zap.Logger

	tasks   chan func()
	started chan struct{}
	done    chan struct{}

	// loop-confined
	lastHandle host.Handle
	timers     map[host.Handle]*clock.Timer
	frames     []frameRequest
	frameCount uint64
}

// New creates a loop. It does nothing until Run is called.
func New(opts Options) *Loop {
	defaults := DefaultOptions()
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaults.FrameInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaults.QueueSize
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}

	return &Loop{
		clock:         opts.Clock,
		origin:        opts.Clock.Now(),
		frameInterval: opts.FrameInterval,
		log:           opts.Logger,
		tasks:         make(chan func(), opts.QueueSize),
		started:       make(chan struct{}),
		done:          make(chan struct{}),
		timers:        make(map[host.Handle]*clock.Timer),
	}
}

// Run processes tasks, timers and frames until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	select {
	case <-l.started:
		return ErrAlreadyRunning
	default:
		close(l.started)
	}
	defer l.shutdown()

	ticker := l.clock.Ticker(l.frameInterval)
	defer ticker.Stop()

	l.log.Debug("event loop started", zap.Duration("frame_interval", l.frameInterval))

	for {
		select {
		case <-ctx.Done():
			l.log.Debug("event loop stopping", zap.Uint64("frames", l.frameCount))
			return nil
		case fn := <-l.tasks:
			l.run(fn)
		case <-ticker.C:
			l.runFrames()
		}
	}
}

func (l *Loop) shutdown() {
	close(l.done)
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
	l.frames = nil
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post schedules fn on the loop goroutine. Safe from any goroutine. Tasks
// posted after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes one callback and keeps a panic from killing the loop.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("loop task panicked", zap.Error(fmt.Errorf("%v", r)))
		}
	}()
	fn()
}

func (l *Loop) nextHandle() host.Handle {
	l.lastHandle++
	return l.lastHandle
}

// Now returns the high-resolution loop time in milliseconds since creation.
func (l *Loop) Now() float64 {
	return float64(l.clock.Since(l.origin)) / float64(time.Millisecond)
}

// Clock returns the clock driving the loop.
func (l *Loop) Clock() clock.Clock {
	return l.clock
}

// SetTimeout runs fn on the loop after delay. Loop goroutine only.
func (l *Loop) SetTimeout(fn func(), delay time.Duration) host.Handle {
	if delay < 0 {
		delay = 0
	}
	h := l.nextHandle()
	l.timers[h] = l.clock.AfterFunc(delay, func() {
		l.Post(func() {
			if _, ok := l.timers[h]; !ok {
				return
			}
			delete(l.timers, h)
			fn()
		})
	})
	return h
}

// ClearTimeout cancels a pending timeout. Unknown handles are ignored.
func (l *Loop) ClearTimeout(h host.Handle) {
	if t, ok := l.timers[h]; ok {
		t.Stop()
		delete(l.timers, h)
	}
}

// RequestAnimationFrame runs fn on the next frame tick. Loop goroutine only.
func (l *Loop) RequestAnimationFrame(fn func(ts float64)) host.Handle {
	h := l.nextHandle()
	l.frames = append(l.frames, frameRequest{handle: h, fn: fn})
	return h
}

// CancelAnimationFrame drops a pending frame request.
func (l *Loop) CancelAnimationFrame(h host.Handle) {
	for i, f := range l.frames {
		if f.handle == h {
			l.frames = append(l.frames[:i], l.frames[i+1:]...)
			return
		}
	}
}

// PendingTimers reports outstanding timeouts. Loop goroutine only.
func (l *Loop) PendingTimers() int {
	return len(l.timers)
}

// FrameCount reports how many frame ticks ran. Loop goroutine only.
func (l *Loop) FrameCount() uint64 {
	return l.frameCount
}

// runFrames runs the requests pending when the tick arrived. Requests made
// by these callbacks wait for the next tick. Each entry stays in l.frames
// until its turn, so a callback may still cancel a later one in the batch.
func (l *Loop) runFrames() {
	l.frameCount++
	if len(l.frames) == 0 {
		return
	}
	last := l.lastHandle
	ts := l.Now()
	for len(l.frames) > 0 && l.frames[0].handle <= last {
		f := l.frames[0]
		l.frames = l.frames[1:]
		l.run(func() { f.fn(ts) })
	}
}
