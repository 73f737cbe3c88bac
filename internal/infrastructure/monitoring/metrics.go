package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Frame scheduler metrics
	FramesTotal      *prometheus.CounterVec
	DriverDuration   *prometheus.HistogramVec
	SchedulerRunning prometheus.Gauge
	SchedulerStarts  *prometheus.CounterVec

	// Capability registry metrics
	ReadinessLatency    prometheus.Histogram
	ReadinessPolls      prometheus.Counter
	ProbesRun           *prometheus.CounterVec
	ProbeFailures       *prometheus.CounterVec
	SubscribersNotified prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64
	TotalErrors   int64
	TotalFrames   int64
	ProbeFailures int64
}

// NewMetrics creates a metrics collector registered on reg.
// Passing nil registers on the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostkit_http_requests_total",
				Help: "Total number of inspector HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hostkit_http_request_duration_seconds",
				Help:    "Inspector HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		// Frame scheduler metrics
		FramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostkit_frames_total",
				Help: "Total number of driver invocations by scheduling path",
			},
			[]string{"path"},
		),
		DriverDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hostkit_frame_driver_duration_seconds",
				Help:    "Time spent inside the per-frame driver",
				Buckets: []float64{.0005, .001, .002, .004, .008, .016, .033, .066, .1},
			},
			[]string{"path"},
		),
		SchedulerRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostkit_scheduler_running",
				Help: "1 while the frame scheduler is running",
			},
		),
		SchedulerStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostkit_scheduler_starts_total",
				Help: "Total number of scheduler starts by scheduling path",
			},
			[]string{"path"},
		),

		// Capability registry metrics
		ReadinessLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hostkit_readiness_latency_seconds",
				Help:    "Time from arming to the ready transition",
				Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		ReadinessPolls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hostkit_readiness_polls_total",
				Help: "Readiness checks rescheduled because the document body was missing",
			},
		),
		ProbesRun: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostkit_probes_run_total",
				Help: "Capability probes executed",
			},
			[]string{"probe"},
		),
		ProbeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostkit_probe_failures_total",
				Help: "Capability probes that failed and fell back to defaults",
			},
			[]string{"probe"},
		),
		SubscribersNotified: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hostkit_subscribers_notified_total",
				Help: "Ready subscribers invoked",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostkit_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hostkit_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hostkit_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	return m
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	if m == nil {
		return
	}
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordFrame records one driver invocation on the given path.
func (m *Metrics) RecordFrame(path string, duration time.Duration) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(path).Inc()
	m.DriverDuration.WithLabelValues(path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalFrames++
	m.mu.Unlock()
}

// SetSchedulerRunning records a scheduler start or stop.
func (m *Metrics) SetSchedulerRunning(running bool, path string) {
	if m == nil {
		return
	}
	if running {
		m.SchedulerRunning.Set(1)
		m.SchedulerStarts.WithLabelValues(path).Inc()
		return
	}
	m.SchedulerRunning.Set(0)
}

// RecordReady records the ready transition.
func (m *Metrics) RecordReady(sinceArmed time.Duration) {
	if m == nil {
		return
	}
	m.ReadinessLatency.Observe(sinceArmed.Seconds())
}

// IncReadinessPolls counts a body-missing reschedule.
func (m *Metrics) IncReadinessPolls() {
	if m == nil {
		return
	}
	m.ReadinessPolls.Inc()
}

// RecordProbe records a probe execution and whether it failed.
func (m *Metrics) RecordProbe(probe string, failed bool) {
	if m == nil {
		return
	}
	m.ProbesRun.WithLabelValues(probe).Inc()
	if !failed {
		return
	}
	m.ProbeFailures.WithLabelValues(probe).Inc()

	m.mu.Lock()
	m.snapshot.ProbeFailures++
	m.mu.Unlock()
}

// IncSubscribersNotified counts one ready subscriber invocation.
func (m *Metrics) IncSubscribersNotified() {
	if m == nil {
		return
	}
	m.SubscribersNotified.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// Snapshot returns the current JSON-friendly totals.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
