package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/app"
	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
	"github.com/GriffinCanCode/hostkit/internal/domain/frame"
	"github.com/GriffinCanCode/hostkit/internal/host/eventloop"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/tracing"
)

// Executor runs fn on the host loop goroutine and waits for it.
// *eventloop.Loop implements it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Deps are the components the handlers report on.
type Deps struct {
	Exec      Executor
	Registry  *capability.Registry
	Scheduler *frame.Scheduler
	Game      *app.Game
	Profile   string
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// Handlers contains all inspector HTTP handlers
type Handlers struct {
	deps    Deps
	log     *zap.Logger
	started time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{deps: deps, log: log, started: time.Now()}
}

// SchedulerView combines scheduler and game state.
type SchedulerView struct {
	frame.Stats
	Game app.Stats `json:"game"`
}

// Health handles the health check
func (h *Handlers) Health(c *gin.Context) {
	var state capability.State
	if !h.onLoop(c, func() { state = h.deps.Registry.State() }) {
		return
	}
	respond(c, http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "hostkit",
		"profile":  h.deps.Profile,
		"registry": state.String(),
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

// Capabilities returns the registry report
func (h *Handlers) Capabilities(c *gin.Context) {
	var rep capability.Report
	if !h.onLoop(c, func() { rep = h.deps.Registry.Report() }) {
		return
	}
	respond(c, http.StatusOK, rep)
}

// Scheduler returns scheduler and game stats
func (h *Handlers) Scheduler(c *gin.Context) {
	var view SchedulerView
	if !h.onLoop(c, func() { view = h.schedulerView() }) {
		return
	}
	respond(c, http.StatusOK, view)
}

// StartScheduler resumes the game loop
func (h *Handlers) StartScheduler(c *gin.Context) {
	var (
		view SchedulerView
		err  error
	)
	ok := h.onLoop(c, func() {
		err = h.deps.Game.Resume()
		view = h.schedulerView()
	})
	if !ok {
		return
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, app.ErrNotReady) {
			status = http.StatusConflict
		}
		respond(c, status, gin.H{"error": err.Error()})
		return
	}
	h.log.Info("scheduler started via inspector",
		zap.String("trace_id", string(tracing.GetTraceID(c.Request.Context()))),
		zap.String("run_id", view.RunID))
	respond(c, http.StatusOK, view)
}

// StopScheduler pauses the game loop
func (h *Handlers) StopScheduler(c *gin.Context) {
	var view SchedulerView
	ok := h.onLoop(c, func() {
		h.deps.Game.Pause()
		view = h.schedulerView()
	})
	if !ok {
		return
	}
	h.log.Info("scheduler stopped via inspector",
		zap.String("trace_id", string(tracing.GetTraceID(c.Request.Context()))),
		zap.Uint64("frames", view.Frames))
	respond(c, http.StatusOK, view)
}

// IntervalRequest sets the timer path pace.
type IntervalRequest struct {
	IntervalMS *int64 `json:"intervalMs" binding:"required"`
}

// SetInterval changes the delay between timer path frames
func (h *Handlers) SetInterval(c *gin.Context) {
	var req IntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		view SchedulerView
		err  error
	)
	ok := h.onLoop(c, func() {
		err = h.deps.Game.SetInterval(time.Duration(*req.IntervalMS) * time.Millisecond)
		view = h.schedulerView()
	})
	if !ok {
		return
	}
	if err != nil {
		respond(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respond(c, http.StatusOK, view)
}

// MetricsSnapshot returns the JSON metric totals
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	h.deps.Metrics.UpdateUptime()
	respond(c, http.StatusOK, h.deps.Metrics.Snapshot())
}

func (h *Handlers) schedulerView() SchedulerView {
	return SchedulerView{Stats: h.deps.Scheduler.Stats(), Game: h.deps.Game.Stats()}
}

// onLoop runs fn on the host loop and writes an error response when the
// loop is gone or the request was cancelled.
func (h *Handlers) onLoop(c *gin.Context, fn func()) bool {
	err := h.deps.Exec.Do(c.Request.Context(), fn)
	if err == nil {
		return true
	}

	status := http.StatusServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	if !errors.Is(err, eventloop.ErrStopped) {
		h.log.Warn("host loop call failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	respond(c, status, gin.H{"error": err.Error()})
	return false
}

func respond(c *gin.Context, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode response"})
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
