package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostkit/internal/app"
	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
	"github.com/GriffinCanCode/hostkit/internal/domain/frame"
	"github.com/GriffinCanCode/hostkit/internal/host"
	"github.com/GriffinCanCode/hostkit/internal/host/hosttest"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/monitoring"
)

// lockedExec serializes tasks the way the host loop does.
type lockedExec struct{ mu sync.Mutex }

func (e *lockedExec) Do(_ context.Context, fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
	return nil
}

type fixture struct {
	exec    *lockedExec
	host    *hosttest.Host
	reg     *capability.Registry
	handler *Handler
	game    *app.Game
	metrics *monitoring.Metrics
	url     string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := hosttest.New()
	reg := capability.New(h, capability.WithProbes(capability.Probe{Name: "device", Run: func(r *capability.Record) error {
		r.SetNumber("device.cores", 8)
		return nil
	}}))
	game := app.New(reg)
	sched, err := frame.New(h, h, game.Step)
	require.NoError(t, err)
	game.Attach(sched)

	f := &fixture{
		exec:    &lockedExec{},
		host:    h,
		reg:     reg,
		game:    game,
		metrics: monitoring.NewMetrics(prometheus.NewRegistry()),
	}
	f.handler = NewHandler(Deps{
		Exec:      f.exec,
		Registry:  reg,
		Scheduler: sched,
		Game:      game,
		Metrics:   f.metrics,
		Interval:  10 * time.Millisecond,
	})

	router := gin.New()
	router.GET("/stream", f.handler.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	f.url = "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	return f
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ev := next(t, conn)
	require.Equal(t, "system", ev.Type)
	require.True(t, strings.HasPrefix(ev.ConnID, "conn_"))
	return conn
}

func next(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// makeReady fires the document signal on the loop.
func (f *fixture) makeReady() {
	_ = f.exec.Do(context.Background(), func() {
		f.host.State = host.ReadyStateInteractive
		f.host.Body = true
		f.host.Fire(host.SignalContentLoaded)
	})
}

func TestStreamReadyThenFrames(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.WSConnections) == 1
	}, time.Second, 5*time.Millisecond)

	_ = f.exec.Do(context.Background(), f.game.Launch)
	f.makeReady()

	ev := next(t, conn)
	require.Equal(t, "ready", ev.Type)
	require.NotNil(t, ev.Capabilities)
	assert.Equal(t, "ready", ev.Capabilities.State)
	assert.Equal(t, 8.0, ev.Capabilities.Capabilities["device.cores"])

	ev = next(t, conn)
	require.Equal(t, "frames", ev.Type)
	require.NotNil(t, ev.Frames)
	assert.True(t, ev.Frames.Running)
	assert.Equal(t, frame.PathFrame, ev.Frames.Path)
	require.NotNil(t, ev.Game)
	assert.Equal(t, app.StateRunning, ev.Game.State)
}

func TestStreamNoFramesBeforeReady(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	assert.Equal(t, "pong", next(t, conn).Type)
}

func TestStreamSnapshot(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Message{Type: "snapshot"}))
	ev := next(t, conn)
	require.Equal(t, "capabilities", ev.Type)
	assert.Equal(t, "armed", ev.Capabilities.State)
	assert.Equal(t, 1, ev.Capabilities.Pending)
}

func TestStreamUnknownMessage(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Message{Type: "launch_missiles"}))
	ev := next(t, conn)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "unknown message type", ev.Message)
}

func TestStreamClosesCleanly(t *testing.T) {
	f := setup(t)
	conn := f.dial(t)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.WSConnections) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.WSConnections) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStreamSubscribersStayBounded(t *testing.T) {
	f := setup(t)

	for i := 0; i < 50; i++ {
		conn := f.dial(t)
		require.NoError(t, conn.Close())
	}

	watching := func() int {
		var n int
		_ = f.exec.Do(context.Background(), func() { n = f.handler.hub.len() })
		return n
	}
	require.Eventually(t, func() bool { return watching() == 0 }, time.Second, 5*time.Millisecond)

	var pending int
	_ = f.exec.Do(context.Background(), func() { pending = f.reg.Pending() })
	assert.Equal(t, 1, pending)
}

func TestStreamReadyReachesEveryConnection(t *testing.T) {
	f := setup(t)
	first := f.dial(t)
	second := f.dial(t)

	f.makeReady()
	assert.Equal(t, "ready", next(t, first).Type)
	assert.Equal(t, "ready", next(t, second).Type)

	// late joiners are told straight away
	third := f.dial(t)
	ev := next(t, third)
	require.Equal(t, "ready", ev.Type)
	assert.Equal(t, "ready", ev.Capabilities.State)
}
