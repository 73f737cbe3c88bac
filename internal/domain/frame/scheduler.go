package frame

import (
	"errors"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/host"
	"github.com/GriffinCanCode/hostkit/internal/shared/id"
)

var (
	// ErrNoTimerPrimitive means the host cannot run a scheduler at all.
	ErrNoTimerPrimitive = errors.New("host offers no timer primitive")
	// ErrNoDriver is returned when New is given a nil driver.
	ErrNoDriver = errors.New("frame driver is required")
)

// DefaultInterval is the fallback timer delay when the owner sets none.
const DefaultInterval = 16 * time.Millisecond

// VendorNames lists frame primitive names in discovery order.
var VendorNames = []string{
	"requestAnimationFrame",
	"webkitRequestAnimationFrame",
	"mozRequestAnimationFrame",
	"msRequestAnimationFrame",
	"oRequestAnimationFrame",
}

// Path names the primitive a run uses.
type Path string

const (
	PathFrame Path = "raf"
	PathTimer Path = "timeout"
)

// Driver is called once per frame with a timestamp in whole milliseconds:
// the host's frame time on the frame path, wall-clock time on the timer path.
type Driver func(ts int64)

// Recorder receives scheduler metrics. *monitoring.Metrics implements it.
type Recorder interface {
	RecordFrame(path string, duration time.Duration)
	SetSchedulerRunning(running bool, path string)
}

type nopRecorder struct{}

func (nopRecorder) RecordFrame(string, time.Duration) {}
func (nopRecorder) SetSchedulerRunning(bool, string)  {}

// Stats is a point-in-time view of a scheduler.
type Stats struct {
	Running       bool   `json:"running"`
	Path          Path   `json:"path,omitempty"`
	FrameName     string `json:"frameName,omitempty"`
	RunID         string `json:"runId,omitempty"`
	Frames        uint64 `json:"frames"`
	LastTimestamp int64  `json:"lastTimestamp"`
}

// Scheduler drives a Driver once per frame until stopped. It is confined
// to the host loop goroutine.
//
// Calling Start while already running is not supported; owners must Stop
// first.
type Scheduler struct {
	timers    host.Timers
	frames    host.Frames
	frameName string
	driver    Driver

	forceTimer bool
	interval   func() time.Duration
	clock      clock.Clock
	log        *zap.Logger
	metrics    Recorder

	running    bool
	useTimer   bool
	handle     host.Handle
	generation uint64
	runID      id.RunID
	count      uint64
	lastTS     int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithForceTimer selects the timer path even when frames are available.
func WithForceTimer(force bool) Option {
	return func(s *Scheduler) { s.forceTimer = force }
}

// WithInterval sets the fallback delay source. It is read before every
// reschedule, so the owner may change the pace between frames.
func WithInterval(fn func() time.Duration) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.interval = fn
		}
	}
}

// WithClock sets the wall clock used for timer path timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Recorder) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a stopped scheduler. The frame primitive is looked up once,
// by VendorNames order; a nil lookup or no match means the timer path.
func New(timers host.Timers, lookup host.FrameLookup, driver Driver, opts ...Option) (*Scheduler, error) {
	if timers == nil {
		return nil, ErrNoTimerPrimitive
	}
	if driver == nil {
		return nil, ErrNoDriver
	}

	s := &Scheduler{
		timers:   timers,
		driver:   driver,
		interval: func() time.Duration { return DefaultInterval },
		clock:    clock.New(),
		log:      zap.NewNop(),
		metrics:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if lookup != nil {
		for _, name := range VendorNames {
			if frames, ok := lookup.LookupFrames(name); ok && frames != nil {
				s.frames, s.frameName = frames, name
				break
			}
		}
	}
	s.log.Debug("frame primitive discovered", zap.String("name", s.frameName))
	return s, nil
}

// Start begins driving frames.
func (s *Scheduler) Start() {
	s.generation++
	gen := s.generation

	s.running = true
	s.useTimer = s.frames == nil || s.forceTimer
	s.runID = id.NewRunID()
	s.metrics.SetSchedulerRunning(true, string(s.path()))
	s.log.Info("scheduler started",
		zap.String("run_id", s.runID.String()),
		zap.String("path", string(s.path())))

	if s.useTimer {
		s.handle = s.timers.SetTimeout(func() { s.timerStep(gen) }, 0)
		return
	}
	s.handle = s.frames.RequestAnimationFrame(func(ts float64) { s.frameStep(gen, ts) })
}

// Stop cancels the pending request. Stopping from inside the driver
// prevents the next request. Stop when not running does nothing.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.generation++

	if s.handle != 0 {
		if s.useTimer {
			s.timers.ClearTimeout(s.handle)
		} else {
			s.frames.CancelAnimationFrame(s.handle)
		}
		s.handle = 0
	}
	s.metrics.SetSchedulerRunning(false, string(s.path()))
	s.log.Info("scheduler stopped",
		zap.String("run_id", s.runID.String()),
		zap.Uint64("frames", s.count))
}

func (s *Scheduler) current(gen uint64) bool {
	return s.running && gen == s.generation
}

func (s *Scheduler) frameStep(gen uint64, ts float64) {
	if !s.current(gen) {
		return
	}
	s.handle = 0
	s.drive(int64(math.Floor(ts)), PathFrame)

	if s.current(gen) {
		s.handle = s.frames.RequestAnimationFrame(func(ts float64) { s.frameStep(gen, ts) })
	}
}

func (s *Scheduler) timerStep(gen uint64) {
	if !s.current(gen) {
		return
	}
	s.handle = 0
	s.drive(s.clock.Now().UnixMilli(), PathTimer)

	if s.current(gen) {
		delay := s.interval()
		if delay < 0 {
			delay = 0
		}
		s.handle = s.timers.SetTimeout(func() { s.timerStep(gen) }, delay)
	}
}

func (s *Scheduler) drive(ts int64, path Path) {
	s.count++
	s.lastTS = ts
	start := time.Now()
	s.driver(ts)
	s.metrics.RecordFrame(string(path), time.Since(start))
}

func (s *Scheduler) path() Path {
	if s.useTimer {
		return PathTimer
	}
	return PathFrame
}

// IsRunning reports whether a run is active.
func (s *Scheduler) IsRunning() bool { return s.running }

// IsSetTimeout reports whether the current or last run used the timer path.
func (s *Scheduler) IsSetTimeout() bool { return s.useTimer }

// IsRAF reports whether the current or last run used the frame path. It is
// the negation of IsSetTimeout, so it is true before the first Start.
func (s *Scheduler) IsRAF() bool { return !s.useTimer }

// FrameName returns the discovered frame primitive name, "" if none.
func (s *Scheduler) FrameName() string { return s.frameName }

// Stats returns a snapshot for reporting.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Running:       s.running,
		FrameName:     s.frameName,
		RunID:         s.runID.String(),
		Frames:        s.count,
		LastTimestamp: s.lastTS,
	}
	if s.running {
		st.Path = s.path()
	}
	return st
}
