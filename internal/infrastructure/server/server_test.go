package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostkit/internal/host/jshost"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/config"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/tracing"
)

func testConfig(profile string) *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Host.Profile = profile
	cfg.RateLimit.Enabled = false
	return cfg
}

// start runs the server until the test ends.
func start(t *testing.T, profile string) *Server {
	t.Helper()

	s, err := NewServer(testConfig(profile), WithLogger(logging.NewNop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
		assert.NoError(t, s.Close())
	})
	return s
}

// getJSON returns nil on any failure so it can be polled.
func getJSON(t *testing.T, s *Server, path string) map[string]any {
	t.Helper()
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		return nil
	}
	var body map[string]any
	if err := sonic.Unmarshal(w.Body.Bytes(), &body); err != nil {
		return nil
	}
	return body
}

func TestNewServerUnknownProfile(t *testing.T) {
	_, err := NewServer(testConfig("netscape"), WithLogger(logging.NewNop()))
	assert.ErrorIs(t, err, jshost.ErrUnknownProfile)
}

func TestServerDiscoversAndRunsFrames(t *testing.T) {
	s := start(t, "desktop-chrome")

	require.Eventually(t, func() bool {
		body := getJSON(t, s, "/capabilities")
		return body != nil && body["state"] == "ready"
	}, 3*time.Second, 10*time.Millisecond)

	caps := getJSON(t, s, "/capabilities")["capabilities"].(map[string]any)
	assert.Equal(t, "chrome", caps["browser.name"])
	assert.Equal(t, true, caps["os.windows"])

	require.Eventually(t, func() bool {
		body := getJSON(t, s, "/scheduler")
		frames, _ := body["frames"].(float64)
		return body != nil && body["running"] == true && frames > 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "raf", getJSON(t, s, "/scheduler")["path"])

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `hostkit_frames_total{path="raf"}`))
	assert.Contains(t, w.Body.String(), "hostkit_probes_run_total")
}

func TestServerHeadlessUsesTimers(t *testing.T) {
	s := start(t, "headless")

	require.Eventually(t, func() bool {
		body := getJSON(t, s, "/scheduler")
		frames, _ := body["frames"].(float64)
		return body != nil && body["running"] == true && frames > 0
	}, 3*time.Second, 10*time.Millisecond)

	body := getJSON(t, s, "/scheduler")
	assert.Equal(t, "timeout", body["path"])

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/scheduler/stop", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, getJSON(t, s, "/scheduler")["running"])
}

func TestServerPropagatesTrace(t *testing.T) {
	s := start(t, "headless")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(tracing.TraceHeader, "trace_inspector")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace_inspector", w.Header().Get(tracing.TraceHeader))
	assert.NotEmpty(t, w.Header().Get(tracing.SpanHeader))
}

func TestServerIntervalChangesAtRuntime(t *testing.T) {
	s := start(t, "headless")

	require.Eventually(t, func() bool {
		body := getJSON(t, s, "/scheduler")
		return body != nil && body["running"] == true
	}, 3*time.Second, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodPut, "/scheduler/interval", strings.NewReader(`{"intervalMs": 5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got time.Duration
	require.NoError(t, s.loop.Do(context.Background(), func() { got = s.game.Interval() }))
	assert.Equal(t, 5*time.Millisecond, got)

	game := getJSON(t, s, "/scheduler")["game"].(map[string]any)
	assert.Equal(t, float64(5), game["intervalMs"])
}

func TestDiscover(t *testing.T) {
	s, err := NewServer(testConfig("safari"), WithLogger(logging.NewNop()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rep, err := s.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", rep.State)
	assert.Equal(t, true, rep.Capabilities["browser.safari"])
	assert.False(t, rep.Audio["opus"])
	assert.True(t, rep.Video["hls"])
}

func TestDiscoverCancelled(t *testing.T) {
	cfg := testConfig("desktop-chrome")
	s, err := NewServer(cfg, WithLogger(logging.NewNop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
