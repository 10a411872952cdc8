package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/session"
	"github.com/GriffinCanCode/modide/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/modide/internal/shared/id"
)

// DefaultMaxUpload caps raw and multipart upload bodies
const DefaultMaxUpload int64 = 64 << 20

// Handlers contains all HTTP handlers of the navigator API
type Handlers struct {
	sessions  *session.Manager
	metrics   *monitoring.Metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	maxUpload int64
}

// Option configures Handlers
type Option func(*Handlers)

// WithMetrics enables /health counters and /metrics exposition
func WithMetrics(metrics *monitoring.Metrics, gatherer prometheus.Gatherer) Option {
	return func(h *Handlers) {
		h.metrics = metrics
		h.gatherer = gatherer
	}
}

// WithMaxUpload overrides DefaultMaxUpload
func WithMaxUpload(n int64) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// NewHandlers creates a new handler set
func NewHandlers(sessions *session.Manager, logger *zap.Logger, opts ...Option) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{sessions: sessions, logger: logger, maxUpload: DefaultMaxUpload}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route. The websocket stream is mounted by the caller
// on /sessions/:id/events.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/backends", h.ListBackends)
	r.GET("/projects", h.ListProjects)
	r.POST("/projects", h.CreateProject)

	r.POST("/sessions", h.OpenSession)
	s := r.Group("/sessions/:id", h.withSession)
	s.GET("", h.GetSession)
	s.DELETE("", h.CloseSession)
	s.GET("/entries", h.ListEntries)
	s.POST("/entries", h.CreateEntry)
	s.DELETE("/entries/:name", h.DeleteEntry)
	s.POST("/navigate", h.Navigate)
	s.POST("/clipboard", h.SetClipboard)
	s.DELETE("/clipboard", h.ClearClipboard)
	s.POST("/paste", h.Paste)
	s.POST("/rename", h.Rename)
	s.PUT("/files/:name", h.UploadFile)
	s.GET("/files/*path", h.OpenFile)
	s.PUT("/open", h.SaveFile)
	s.POST("/upload", h.UploadFolder)
	s.GET("/tree", h.Tree)
	s.POST("/tree/toggle", h.ToggleTree)
	s.GET("/search", h.Search)
	s.GET("/export", h.Export)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "modide navigator",
	})
}

// Health reports open sessions, backends and request counters
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Count(),
		"backends": h.sessions.Backends(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

const sessionKey = "session"

// withSession resolves :id and stores the session in the context
func (h *Handlers) withSession(c *gin.Context) {
	sid := id.SessionID(c.Param("id"))
	if !sid.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id", "code": "invalid_name"})
		return
	}
	s, ok := h.sessions.Get(sid)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found", "code": "not_found"})
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (h *Handlers) sessionsChanged() {
	if h.metrics != nil {
		h.metrics.SetSessionsActive(h.sessions.Count())
	}
}
