package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/LMMs-Lab/lmms-lab-writer/backend/internal/api/http"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/api/middleware"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/api/ws"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/supervisor"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/terminal"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/domain/watch"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/config"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/logging"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/providers"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/service"
)

// Server wraps the HTTP server and the managers behind it
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	bus        *eventbus.Bus
	terminals  *terminal.Manager
	supervisor *supervisor.Supervisor
	watcher    *watch.Manager
	registry   *service.Registry
	router     *gin.Engine
	httpServer *http.Server
	closeOnce  sync.Once
	closeErr   error
}

// NewServer wires the managers, providers and routes.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing writer backend",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics(nil)
	bus := eventbus.NewWithBuffer(cfg.Events.BufferSize).WithMetrics(metrics)

	terminals := terminal.NewManager(bus, logger.For("terminal"), TerminalConfig(cfg.Terminal)).
		WithMetrics(metrics)
	sup := supervisor.New(bus, logger.For("supervisor"), SupervisorConfig(cfg.Process)).
		WithMetrics(metrics)
	watcher := watch.NewManager(bus, logger.For("watch"), WatchConfig(cfg.Watch)).
		WithMetrics(metrics)

	registry := service.NewRegistry()
	if err := providers.Register(registry, terminals, sup, watcher); err != nil {
		bus.Close()
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		bus:        bus,
		terminals:  terminals,
		supervisor: sup,
		watcher:    watcher,
		registry:   registry,
	}
	s.router = s.routes()
	s.httpServer = &http.Server{Handler: s.router}

	logger.Info("Server initialized", zap.Any("services", registry.Stats()))
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if !s.cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(s.logger.For("http")))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.cfg.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.cfg.RateLimit.RequestsPerSecond,
			Burst:             s.cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(s.registry, s.logger.For("api"), s.metrics)
	wsHandler := ws.NewHandler(s.bus, s.logger.For("stream"), s.metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return router
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = s.Close(context.Background())
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// the HTTP server and every manager.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		_ = s.Close(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
		_ = s.httpServer.Close()
	}
	return s.Close(shutdownCtx)
}

// Close kills every terminal session, stops the supervised server, ends the
// watch and closes the event bus. It is safe to call more than once.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.terminals.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := s.supervisor.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.bus.Close()

		s.closeErr = errors.Join(errs...)
		if s.closeErr != nil {
			s.logger.Error("Shutdown finished with errors", zap.Error(s.closeErr))
		} else {
			s.logger.Info("Shutdown complete")
		}
		s.logger.Sync()
	})
	return s.closeErr
}

// TerminalConfig maps environment settings onto the session registry.
func TerminalConfig(c config.TerminalConfig) terminal.Config {
	return terminal.Config{
		DefaultCols: c.DefaultCols,
		DefaultRows: c.DefaultRows,
		ReadChunk:   c.ReadChunk,
		ExitGrace:   c.ExitGrace,
		HangupGrace: c.HangupGrace,
	}
}

// SupervisorConfig maps environment settings onto the process supervisor.
func SupervisorConfig(c config.ProcessConfig) supervisor.Config {
	return supervisor.Config{
		DefaultPort:   c.DefaultPort,
		PortWindow:    c.PortWindow,
		StartTimeout:  c.StartTimeout,
		PollInterval:  c.PollInterval,
		RestartSettle: c.RestartSettle,
		ProbeTimeout:  c.ProbeTimeout,
		StopTimeout:   c.StopTimeout,
		LogTail:       c.LogTail,
	}
}

// WatchConfig maps environment settings onto the watch manager.
func WatchConfig(c config.WatchConfig) watch.Config {
	return watch.Config{
		Debounce:       c.Debounce,
		CacheCeiling:   c.CacheCeiling,
		CacheRetention: c.CacheRetention,
		IgnoredDirs:    c.IgnoredDirs,
		IgnorePatterns: c.IgnorePatterns,
	}
}
