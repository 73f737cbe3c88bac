package capability

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/host"
	"github.com/GriffinCanCode/hostkit/internal/shared/id"
)

// DefaultPollInterval is the delay between body checks while the host
// reports readiness before its document body exists.
const DefaultPollInterval = 20 * time.Millisecond

// Callback receives the subject it was registered with and the registry.
type Callback func(subject any, r *Registry)

// Recorder receives registry metrics. *monitoring.Metrics implements it.
type Recorder interface {
	RecordReady(sinceArmed time.Duration)
	IncReadinessPolls()
	RecordProbe(probe string, failed bool)
	IncSubscribersNotified()
}

type nopRecorder struct{}

func (nopRecorder) RecordReady(time.Duration) {}
func (nopRecorder) IncReadinessPolls()        {}
func (nopRecorder) RecordProbe(string, bool)  {}
func (nopRecorder) IncSubscribersNotified()   {}

type subscriber struct {
	cb      Callback
	subject any
}

type attachment struct {
	signal string
	id     host.ListenerID
}

// Registry discovers host capabilities once and tells subscribers when it
// is done. It is confined to the host loop goroutine.
//
// If the host never signals readiness, or signals it but never provides a
// document body, the registry polls forever and subscribers are never
// notified. There is no timeout.
type Registry struct {
	id           id.RegistryID
	env          host.Environment
	clock        clock.Clock
	log          *zap.Logger
	metrics      Recorder
	pollInterval time.Duration

	state       State
	armedAt     time.Time
	readyAt     time.Time
	initialized bool
	caps        *Record

	// released on the transition to StateReady
	probes      []Probe
	pending     []subscriber
	observers   []func(*Registry)
	attachments []attachment
	tick        host.Handle
	ticking     bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Recorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock sets the clock used for readiness timestamps.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithPollInterval sets the body poll delay.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithProbes appends probes, run in the given order.
func WithProbes(probes ...Probe) Option {
	return func(r *Registry) {
		r.probes = append(r.probes, probes...)
	}
}

// New creates an unarmed registry. Nothing touches env until the first
// subscription.
func New(env host.Environment, opts ...Option) *Registry {
	r := &Registry{
		id:           id.NewRegistryID(),
		env:          env,
		clock:        clock.New(),
		log:          zap.NewNop(),
		metrics:      nopRecorder{},
		pollInterval: DefaultPollInterval,
		caps:         newRecord(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("registry_id", r.id.String()))
	return r
}

// ID returns the registry identifier used in logs.
func (r *Registry) ID() id.RegistryID { return r.id }

// State returns the lifecycle state.
func (r *Registry) State() State { return r.state }

// Initialized reports whether probes have run.
func (r *Registry) Initialized() bool { return r.initialized }

// ReadyAt returns when readiness was reached.
func (r *Registry) ReadyAt() (time.Time, bool) {
	return r.readyAt, r.state == StateReady
}

// Pending returns the number of subscribers waiting for readiness.
func (r *Registry) Pending() int { return len(r.pending) }

// Capabilities returns the capability record. It must not be written.
func (r *Registry) Capabilities() *Record { return r.caps }

// AddProbe appends a probe. Probes added after readiness never run.
func (r *Registry) AddProbe(p Probe) {
	if r.state == StateReady {
		r.log.Warn("probe added after readiness ignored", zap.String("probe", p.Name))
		return
	}
	r.probes = append(r.probes, p)
}

// OnInitialized registers an observer told once probes have run, before
// any subscriber. Observers added after readiness run immediately.
func (r *Registry) OnInitialized(fn func(*Registry)) {
	if r.state == StateReady {
		fn(r)
		return
	}
	r.observers = append(r.observers, fn)
}

// WhenReady is Subscribe without deferred arming.
func (r *Registry) WhenReady(cb Callback, subject any) {
	r.Subscribe(cb, subject, false)
}

// Subscribe calls cb with subject once the registry is ready.
//
// When already ready, or on a host with no document at all, cb runs before
// Subscribe returns. Otherwise cb is queued; the first subscription that
// does not defer arming attaches the host readiness listener.
func (r *Registry) Subscribe(cb Callback, subject any, deferArming bool) {
	if r.state == StateReady {
		cb(subject, r)
		return
	}

	r.pending = append(r.pending, subscriber{cb: cb, subject: subject})

	if r.state == StateInitializing {
		// subscribed from a probe; flushed with the rest
		return
	}
	if !r.env.HasDocument() {
		r.log.Debug("host has no document, readiness synthesized")
		r.becomeReady()
		return
	}
	if r.state == StateArmed || deferArming {
		return
	}
	r.arm()
}

// Arm attaches the readiness listener if no subscription has done so yet.
// It lets owners that only deferred arming start discovery explicitly.
func (r *Registry) Arm() {
	if r.state != StateUnarmed {
		return
	}
	if !r.env.HasDocument() {
		r.becomeReady()
		return
	}
	r.arm()
}

func (r *Registry) arm() {
	r.state = StateArmed
	r.armedAt = r.clock.Now()

	switch {
	case r.env.ReadyState().Parsed():
		r.log.Debug("document already parsed, checking on next tick")
		r.schedule(0)
	case r.env.HybridContainer():
		r.log.Debug("hybrid container, waiting for device ready")
		r.listen(host.SignalDeviceReady)
	default:
		r.log.Debug("waiting for document signals")
		r.listen(host.SignalContentLoaded)
		r.listen(host.SignalLoad)
	}
}

func (r *Registry) listen(signal string) {
	lid := r.env.AddListener(signal, r.check)
	r.attachments = append(r.attachments, attachment{signal: signal, id: lid})
}

func (r *Registry) schedule(delay time.Duration) {
	if r.ticking {
		return
	}
	r.ticking = true
	r.tick = r.env.SetTimeout(r.onTick, delay)
}

func (r *Registry) onTick() {
	r.ticking = false
	r.check()
}

// check is the readiness check shared by listeners and the poll timer.
func (r *Registry) check() {
	if r.state == StateReady {
		return
	}
	if !r.env.BodyAvailable() {
		r.metrics.IncReadinessPolls()
		r.schedule(r.pollInterval)
		return
	}
	r.becomeReady()
}

func (r *Registry) becomeReady() {
	r.state = StateInitializing
	r.readyAt = r.clock.Now()
	r.detach()

	r.runProbes()
	r.initialized = true
	r.state = StateReady

	if !r.armedAt.IsZero() {
		r.metrics.RecordReady(r.readyAt.Sub(r.armedAt))
	}
	r.log.Info("capabilities discovered",
		zap.Int("capabilities", r.caps.Len()),
		zap.Int("subscribers", len(r.pending)))

	observers := r.observers
	r.observers = nil
	for _, fn := range observers {
		fn(r)
	}

	pending := r.pending
	r.pending = nil
	for _, s := range pending {
		s.cb(s.subject, r)
		r.metrics.IncSubscribersNotified()
	}
}

func (r *Registry) detach() {
	for _, a := range r.attachments {
		r.env.RemoveListener(a.signal, a.id)
	}
	r.attachments = nil
	if r.ticking {
		r.env.ClearTimeout(r.tick)
		r.ticking = false
	}
	r.tick = 0
}

func (r *Registry) runProbes() {
	probes := r.probes
	r.probes = nil
	for _, p := range probes {
		err := p.run(r.caps)
		r.metrics.RecordProbe(p.Name, err != nil)
		if err != nil {
			r.log.Warn("probe failed, capabilities left at defaults",
				zap.String("probe", p.Name), zap.Error(err))
		}
	}
}
