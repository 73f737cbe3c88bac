package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/hostkit/internal/api/http"
	"github.com/GriffinCanCode/hostkit/internal/api/middleware"
	"github.com/GriffinCanCode/hostkit/internal/api/ws"
	"github.com/GriffinCanCode/hostkit/internal/app"
	"github.com/GriffinCanCode/hostkit/internal/domain/capability"
	"github.com/GriffinCanCode/hostkit/internal/domain/capability/probes"
	"github.com/GriffinCanCode/hostkit/internal/domain/frame"
	"github.com/GriffinCanCode/hostkit/internal/host/eventloop"
	"github.com/GriffinCanCode/hostkit/internal/host/jshost"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/config"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hostkit/internal/infrastructure/tracing"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the simulated host, the game and the inspector HTTP server.
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	clock   clock.Clock
	metrics *monitoring.Metrics
	promReg *prometheus.Registry
	tracer  *tracing.Tracer

	loop      *eventloop.Loop
	runtime   *jshost.Runtime
	registry  *capability.Registry
	scheduler *frame.Scheduler
	game      *app.Game

	router *gin.Engine
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the logger built from configuration.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the clock driving the host loop.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{config: cfg, clock: clock.New()}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		lc := logging.DefaultConfig()
		lc.Level = cfg.Logging.Level
		lc.Development = cfg.Logging.Development
		logger, err := logging.New(lc)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		s.logger = logger
	}

	s.logger.Info("Initializing hostkit",
		zap.String("profile", cfg.Host.Profile),
		zap.String("profile_dir", cfg.Host.ProfileDir),
		zap.Bool("force_timer", cfg.Scheduler.ForceTimer),
	)

	// Metrics first, every component records into them
	s.promReg = prometheus.NewRegistry()
	s.promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = monitoring.NewMetrics(s.promReg)
	s.tracer = tracing.New("hostkit", s.logger.Component("trace"), tracing.WithClock(s.clock))

	if err := s.buildHost(); err != nil {
		s.tracer.Close()
		return nil, err
	}
	s.buildRouter()

	s.logger.Info("Server initialized successfully")
	return s, nil
}

func (s *Server) buildHost() error {
	cfg := s.config

	profile, err := jshost.Resolve(cfg.Host.Profile, cfg.Host.ProfileDir)
	if err != nil {
		return fmt.Errorf("failed to resolve host profile %q: %w", cfg.Host.Profile, err)
	}

	s.loop = eventloop.New(eventloop.Options{
		Clock:         s.clock,
		FrameInterval: cfg.Host.FrameInterval(),
		Logger:        s.logger.Component("loop"),
	})

	rtOpts := jshost.DefaultOptions()
	rtOpts.Logger = s.logger.Component("jshost")
	s.runtime, err = jshost.New(s.loop, profile, rtOpts)
	if err != nil {
		return fmt.Errorf("failed to create js host: %w", err)
	}

	s.registry = capability.New(s.runtime,
		capability.WithLogger(s.logger.Component("capability")),
		capability.WithMetrics(s.metrics),
		capability.WithClock(s.clock),
		capability.WithPollInterval(cfg.Readiness.PollInterval()),
		capability.WithProbes(probes.Standard(s.runtime)...),
	)

	s.game = app.New(s.registry,
		app.WithLogger(s.logger.Component("game")),
		app.WithClock(s.clock),
		app.WithInterval(cfg.Scheduler.Interval()),
		app.WithTracer(s.tracer),
	)
	s.scheduler, err = frame.New(s.runtime.Timers(), s.runtime, s.game.Step,
		frame.WithForceTimer(cfg.Scheduler.ForceTimer),
		frame.WithInterval(s.game.Interval),
		frame.WithClock(s.clock),
		frame.WithLogger(s.logger.Component("frame")),
		frame.WithMetrics(s.metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to create frame scheduler: %w", err)
	}
	s.game.Attach(s.scheduler)
	return nil
}

func (s *Server) buildRouter() {
	cfg := s.config

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.InspectorCORS(cfg.Server.CORSOrigins...))
	if cfg.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(api.Deps{
		Exec:      s.loop,
		Registry:  s.registry,
		Scheduler: s.scheduler,
		Game:      s.game,
		Profile:   s.runtime.Profile().Name,
		Metrics:   s.metrics,
		Logger:    s.logger.Component("http"),
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(ws.Deps{
		Exec:      s.loop,
		Registry:  s.registry,
		Scheduler: s.scheduler,
		Game:      s.game,
		Metrics:   s.metrics,
		Logger:    s.logger.Component("ws"),
	})
	router.GET("/stream", wsHandler.HandleConnection)

	prom := promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})
	router.GET("/metrics", func(c *gin.Context) {
		s.metrics.UpdateUptime()
		prom.ServeHTTP(c.Writer, c.Request)
	})

	s.router = router
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Router returns the inspector handler.
func (s *Server) Router() http.Handler { return s.router }

// boot runs on the loop: the document lifecycle starts and the game waits
// for readiness.
func (s *Server) boot() {
	s.runtime.Boot()
	s.game.Launch()
	s.logger.Info("Host booted",
		zap.String("host_id", s.runtime.ID().String()),
		zap.String("registry", s.registry.State().String()),
	)
}

// Run starts the host loop and the HTTP server and blocks until ctx is
// cancelled or either of them fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.loop.Post(s.boot)

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.loop.Run(ctx) }()

	httpErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
			return
		}
		httpErr <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	case err := <-loopErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("host loop failed: %w", err)
		}
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	// stop frames before the loop goes away
	_ = s.loop.Do(shutdownCtx, s.game.Pause)
	cancel()
	<-s.loop.Done()
	return runErr
}

// Discover boots the host without serving HTTP and returns the registry
// report once it is ready. The game is not started.
func (s *Server) Discover(ctx context.Context) (capability.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reports := make(chan capability.Report, 1)
	s.loop.Post(func() {
		s.runtime.Boot()
		s.registry.WhenReady(func(_ any, r *capability.Registry) {
			reports <- r.Report()
		}, s)
	})
	go func() { _ = s.loop.Run(ctx) }()

	var (
		rep capability.Report
		err error
	)
	select {
	case rep = <-reports:
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	<-s.loop.Done()
	return rep, err
}

// Close flushes the logger.
func (s *Server) Close() error {
	s.tracer.Close()
	// stdout and stderr cannot be synced on some platforms
	_ = s.logger.Sync()
	return nil
}
