package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/fileserver"
	"github.com/GriffinCanCode/modide/internal/infrastructure/config"
	"github.com/GriffinCanCode/modide/internal/infrastructure/logging"
	"github.com/GriffinCanCode/modide/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/modide/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/modide/internal/storage/local"
)

// NewFileServer creates the legacy network file server over a base directory
func NewFileServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	logger.Info("Initializing file server",
		zap.String("port", cfg.FileServer.Port),
		zap.String("base", cfg.FileServer.BaseDir),
		zap.Bool("read_only", cfg.FileServer.ReadOnly),
	)

	var opts []local.Option
	if cfg.FileServer.ReadOnly {
		opts = append(opts, local.WithReadOnly())
	}
	backend, err := local.New(cfg.FileServer.BaseDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("file server storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)
	tracer := tracing.New("fileserver", logger.Component("tracing"))

	router := newRouter(cfg, logger, metrics, tracer)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"base":    backend.Base(),
			"metrics": metrics.Snapshot(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	fileserver.New(backend, logger.Component("fileserver"),
		fileserver.WithMaxBody(cfg.Transfer.MaxUploadBytes),
	).Register(router)

	addr := cfg.FileServer.Host + ":" + cfg.FileServer.Port
	logger.Info("File server initialized successfully", zap.String("base", backend.Base()))
	return &Server{
		router:  router,
		http:    &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second},
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		addr:    addr,
	}, nil
}
