package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hostkit/internal/app"
	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
	"github.com/GriffinCanCode/hostkit/internal/domain/frame"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostkit/internal/shared/id"
)

const (
	// DefaultInterval is the pace of frames events.
	DefaultInterval = time.Second
	writeWait       = 5 * time.Second
)

// Executor runs fn on the host loop goroutine and waits for it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Deps are the components a stream reports on. Game and Metrics may be nil.
type Deps struct {
	Exec      Executor
	Registry  *capability.Registry
	Scheduler *frame.Scheduler
	Game      *app.Game
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
	Clock     clock.Clock
	Interval  time.Duration
}

// Message is sent by clients.
type Message struct {
	Type string `json:"type"`
}

// Event is sent to clients.
type Event struct {
	Type         string             `json:"type"`
	ConnID       string             `json:"connId,omitempty"`
	Message      string             `json:"message,omitempty"`
	Capabilities *capability.Report `json:"capabilities,omitempty"`
	Frames       *frame.Stats       `json:"frames,omitempty"`
	Game         *app.Stats         `json:"game,omitempty"`
	Timestamp    int64              `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	deps     Deps
	log      *zap.Logger
	hub      *readyHub
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Handler{
		deps: deps,
		log:  deps.Logger,
		hub:  newReadyHub(deps.Registry),
		upgrader: websocket.Upgrader{
			// the inspector exposes no credentials
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleConnection handles WebSocket upgrade and streams events until the
// client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := id.NewConnID()
	log := h.log.With(zap.String("conn_id", connID.String()))
	h.deps.Metrics.IncWSConnections()
	defer h.deps.Metrics.DecWSConnections()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ready := make(chan capability.Report, 1)
	if err := h.deps.Exec.Do(ctx, func() { h.hub.watch(connID, ready) }); err != nil {
		_ = h.sendError(conn, err.Error())
		return
	}
	defer h.unwatch(connID, log)

	inbound := make(chan Message)
	go h.read(ctx, cancel, conn, inbound, log)

	if err := h.send(conn, Event{Type: "system", ConnID: connID.String(), Message: "connected to hostkit"}); err != nil {
		return
	}
	log.Debug("stream opened")

	ticker := h.deps.Clock.Ticker(h.deps.Interval)
	defer ticker.Stop()

	streaming := false
	for {
		select {
		case <-ctx.Done():
			log.Debug("stream closed")
			return
		case rep := <-ready:
			streaming = true
			err = h.send(conn, Event{Type: "ready", Capabilities: &rep})
		case msg := <-inbound:
			err = h.handle(ctx, conn, msg)
		case <-ticker.C:
			if !streaming {
				continue
			}
			err = h.sendFrames(ctx, conn)
		}
		if err != nil {
			log.Debug("stream write failed", zap.Error(err))
			return
		}
	}
}

// unwatch runs after the request context is gone, so it gets its own deadline.
func (h *Handler) unwatch(connID id.ConnID, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := h.deps.Exec.Do(ctx, func() { h.hub.unwatch(connID) }); err != nil {
		log.Debug("stream unwatch skipped", zap.Error(err))
	}
}

func (h *Handler) read(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, inbound chan<- Message, log *zap.Logger) {
	defer cancel()
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.deps.Metrics.RecordWSMessage("in", msg.Type)

		select {
		case inbound <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handle(ctx context.Context, conn *websocket.Conn, msg Message) error {
	switch msg.Type {
	case "ping":
		return h.send(conn, Event{Type: "pong"})
	case "snapshot":
		var rep capability.Report
		if err := h.deps.Exec.Do(ctx, func() { rep = h.deps.Registry.Report() }); err != nil {
			return h.sendError(conn, err.Error())
		}
		return h.send(conn, Event{Type: "capabilities", Capabilities: &rep})
	default:
		return h.sendError(conn, "unknown message type")
	}
}

func (h *Handler) sendFrames(ctx context.Context, conn *websocket.Conn) error {
	var (
		stats frame.Stats
		game  *app.Stats
	)
	err := h.deps.Exec.Do(ctx, func() {
		stats = h.deps.Scheduler.Stats()
		if h.deps.Game != nil {
			st := h.deps.Game.Stats()
			game = &st
		}
	})
	if err != nil {
		_ = h.sendError(conn, err.Error())
		return err
	}
	return h.send(conn, Event{Type: "frames", Frames: &stats, Game: game})
}

func (h *Handler) send(conn *websocket.Conn, ev Event) error {
	ev.Timestamp = h.deps.Clock.Now().Unix()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(ev); err != nil {
		return err
	}
	h.deps.Metrics.RecordWSMessage("out", ev.Type)
	return nil
}

func (h *Handler) sendError(conn *websocket.Conn, msg string) error {
	return h.send(conn, Event{Type: "error", Message: msg})
}
