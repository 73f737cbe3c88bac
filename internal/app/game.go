package app

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
	"github.com/GriffinCanCode/hostkit/internal/domain/frame"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/tracing"
)

var (
	// ErrNotReady is returned when resuming before the host is ready.
	ErrNotReady = errors.New("host capabilities are not ready")
	// ErrNoScheduler is returned when no scheduler was attached.
	ErrNoScheduler = errors.New("no frame scheduler attached")
	// ErrInvalidInterval is returned for a negative timer pace.
	ErrInvalidInterval = errors.New("interval must not be negative")
)

// State is the game lifecycle state.
type State string

const (
	StateWaiting State = "waiting"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Stats is a point-in-time view of the game.
type Stats struct {
	State         State      `json:"state"`
	Frames        uint64     `json:"frames"`
	LastTimestamp int64      `json:"lastTimestamp"`
	LastDelta     int64      `json:"lastDelta"`
	IntervalMS    int64      `json:"intervalMs"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
}

// Game drives a simulation from the frame scheduler once the host is ready.
type Game struct {
	registry  *capability.Registry
	scheduler *frame.Scheduler
	clock     clock.Clock
	log       *zap.Logger
	onFrame   func(ts, delta int64)
	interval  time.Duration
	tracer    *tracing.Tracer

	state     State
	launched  bool
	frames    uint64
	lastTS    int64
	delta     int64
	fresh     bool
	startedAt time.Time

	// trace spans discovery and every run that follows it
	trace   context.Context
	run     *tracing.Span
	runFrom uint64
}

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Game) {
		if log != nil {
			g.log = log
		}
	}
}

// WithClock sets the clock used for the start time.
func WithClock(c clock.Clock) Option {
	return func(g *Game) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithFrameHook is called after every step with the frame timestamp and
// the delta to the previous frame of the same run.
func WithFrameHook(fn func(ts, delta int64)) Option {
	return func(g *Game) { g.onFrame = fn }
}

// WithInterval sets the initial timer path pace. Negative values are ignored.
func WithInterval(d time.Duration) Option {
	return func(g *Game) {
		if d >= 0 {
			g.interval = d
		}
	}
}

// WithTracer records a span for capability discovery and one per
// scheduler run.
func WithTracer(t *tracing.Tracer) Option {
	return func(g *Game) { g.tracer = t }
}

// New creates a waiting game bound to registry.
func New(registry *capability.Registry, opts ...Option) *Game {
	g := &Game{
		registry: registry,
		clock:    clock.New(),
		log:      zap.NewNop(),
		state:    StateWaiting,
		interval: frame.DefaultInterval,
		trace:    context.Background(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attach sets the scheduler that drives Step.
func (g *Game) Attach(s *frame.Scheduler) { g.scheduler = s }

// Launch subscribes to readiness; the scheduler starts when it arrives.
// Calling it again does nothing.
func (g *Game) Launch() {
	if g.launched {
		return
	}
	g.launched = true

	span, ctx := g.tracer.StartSpan(g.trace, "capability.discovery")
	g.trace = ctx
	g.registry.WhenReady(func(_ any, r *capability.Registry) {
		span.SetTag("registry_id", r.ID().String())
		span.SetTag("capabilities", strconv.Itoa(r.Capabilities().Len()))
		span.Finish()
		g.tracer.Submit(span)

		g.log.Info("host ready, starting frames",
			zap.String("registry_id", r.ID().String()),
			zap.String("trace_id", string(span.TraceID)),
			zap.Int("capabilities", r.Capabilities().Len()))
		if err := g.Resume(); err != nil {
			g.log.Error("failed to start frames", zap.Error(err))
		}
	}, g)
}

// Step advances the simulation by one frame. It is the scheduler driver.
func (g *Game) Step(ts int64) {
	if g.fresh {
		g.delta = 0
		g.fresh = false
	} else {
		g.delta = ts - g.lastTS
	}
	g.lastTS = ts
	g.frames++
	if g.onFrame != nil {
		g.onFrame(ts, g.delta)
	}
}

// Resume starts the scheduler. It fails before readiness and does nothing
// while running.
func (g *Game) Resume() error {
	if g.scheduler == nil {
		return ErrNoScheduler
	}
	if !g.registry.Initialized() {
		return ErrNotReady
	}
	if g.scheduler.IsRunning() {
		return nil
	}

	g.fresh = true
	if g.startedAt.IsZero() {
		g.startedAt = g.clock.Now()
	}
	g.scheduler.Start()
	g.state = StateRunning

	st := g.scheduler.Stats()
	g.run, _ = g.tracer.StartSpan(g.trace, "scheduler.run")
	g.runFrom = g.frames
	g.run.SetTag("run_id", st.RunID)
	g.run.SetTag("path", string(st.Path))
	return nil
}

// Pause stops the scheduler. Pausing a game that is not running does
// nothing.
func (g *Game) Pause() {
	if g.scheduler == nil || !g.scheduler.IsRunning() {
		return
	}
	g.scheduler.Stop()
	g.state = StatePaused
	g.finishRun()
}

func (g *Game) finishRun() {
	if g.run == nil {
		return
	}
	g.run.SetTag("frames", strconv.FormatUint(g.frames-g.runFrom, 10))
	g.run.Finish()
	g.tracer.Submit(g.run)
	g.run = nil
}

// TraceID identifies the trace holding this game's discovery and runs. It
// is empty before Launch.
func (g *Game) TraceID() tracing.TraceID { return tracing.GetTraceID(g.trace) }

// Interval is the delay between timer path frames. The scheduler reads it
// before every reschedule, so pass the method value to frame.WithInterval.
func (g *Game) Interval() time.Duration { return g.interval }

// SetInterval changes the timer path pace from the next frame on. The
// display refresh path is unaffected.
func (g *Game) SetInterval(d time.Duration) error {
	if d < 0 {
		return ErrInvalidInterval
	}
	if d != g.interval {
		g.log.Info("frame interval changed",
			zap.Duration("from", g.interval), zap.Duration("to", d))
	}
	g.interval = d
	return nil
}

// State returns the lifecycle state.
func (g *Game) State() State { return g.state }

// Stats returns a snapshot for reporting.
func (g *Game) Stats() Stats {
	st := Stats{
		State:         g.state,
		Frames:        g.frames,
		LastTimestamp: g.lastTS,
		LastDelta:     g.delta,
		IntervalMS:    g.interval.Milliseconds(),
	}
	if !g.startedAt.IsZero() {
		at := g.startedAt
		st.StartedAt = &at
	}
	return st
}
