package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/modide/internal/api/http"
	"github.com/GriffinCanCode/modide/internal/api/middleware"
	"github.com/GriffinCanCode/modide/internal/domain/session"
	"github.com/GriffinCanCode/modide/internal/infrastructure/config"
	"github.com/GriffinCanCode/modide/internal/infrastructure/logging"
	"github.com/GriffinCanCode/modide/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/modide/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/modide/internal/shared/id"
	"github.com/GriffinCanCode/modide/internal/storage/local"
	"github.com/GriffinCanCode/modide/internal/storage/memory"
	"github.com/GriffinCanCode/modide/internal/storage/remote"
	"github.com/GriffinCanCode/modide/internal/vfs"
	"github.com/GriffinCanCode/modide/internal/ws"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	addr     string
}

// NewServer creates the navigator server: storage backends, the session
// manager, the REST API and the event stream
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	logger.Info("Initializing navigator",
		zap.String("port", cfg.Server.Port),
		zap.Strings("backends", cfg.Storage.Backends),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)
	tracer := tracing.New("navigator", logger.Component("tracing"))

	hub := ws.NewHub(logger.Component("ws"), metrics)
	sessions := session.NewManager(logger.Component("session"),
		session.WithNotifier(hub),
		session.WithRecorder(metrics),
		session.WithLimits(cfg.Transfer.MaxCopyDepth, cfg.Transfer.SearchLimit),
	)

	backends, err := buildBackends(cfg, logger, metrics)
	if err != nil {
		tracer.Close()
		return nil, err
	}
	for _, b := range backends {
		sessions.RegisterBackend(b)
	}

	router := newRouter(cfg, logger, metrics, tracer)
	handlers := apihttp.NewHandlers(sessions, logger.Component("api"),
		apihttp.WithMetrics(metrics, registry),
		apihttp.WithMaxUpload(cfg.Transfer.MaxUploadBytes),
	)
	handlers.Register(router)

	lookup := func(sid id.SessionID) bool {
		_, ok := sessions.Get(sid)
		return ok
	}
	router.GET("/sessions/:id/events", ws.NewHandler(hub, lookup, logger.Component("ws"),
		ws.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	).HandleConnection)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Info("Navigator initialized successfully")
	return &Server{
		router:   router,
		http:     &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second},
		sessions: sessions,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		addr:     addr,
	}, nil
}

// buildBackends creates every backend named in the storage config
func buildBackends(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) ([]vfs.Backend, error) {
	var backends []vfs.Backend
	if cfg.Storage.HasBackend("memory") {
		backends = append(backends, memory.New())
	}
	if cfg.Storage.HasBackend("local") {
		b, err := local.New(cfg.Storage.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		logger.Info("Local storage ready", zap.String("root", b.Base()))
		backends = append(backends, b)
	}
	if cfg.Storage.HasBackend("remote") {
		b, err := remote.New(remote.Config{
			BaseURL: cfg.Storage.RemoteURL,
			Timeout: time.Duration(cfg.Storage.TimeoutSec) * time.Second,
			Retries: cfg.Storage.Retries,
			RPS:     cfg.Storage.RemoteRPS,
			Metrics: metrics,
			Logger:  logger.Component("remote"),
		})
		if err != nil {
			return nil, fmt.Errorf("remote storage: %w", err)
		}
		logger.Info("Remote storage configured", zap.String("url", cfg.Storage.RemoteURL))
		backends = append(backends, b)
	}
	if len(backends) == 0 {
		return nil, errors.New("no storage backend configured")
	}
	return backends, nil
}

// newRouter builds a gin engine with the shared middleware stack
func newRouter(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, tracer *tracing.Tracer) *gin.Engine {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger.Component("http")))
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSConfigFor(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}
	return router
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops accepting requests, returns every session home and flushes logs
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
	}

	if s.sessions != nil {
		n := s.sessions.Count()
		s.sessions.CloseAll()
		s.metrics.SetSessionsActive(0)
		s.logger.Info("Closed sessions", zap.Int("count", n))
	}
	s.tracer.Close()
	_ = s.logger.Sync()
	return err
}
