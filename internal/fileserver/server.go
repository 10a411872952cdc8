// Package fileserver is the legacy network file server.
//
// It exposes a base directory of projects over a small REST API under /api.
// Handlers are written against vfs.Backend, so the same routes can front any
// backend; cmd/fileserver uses the local one.
package fileserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// DefaultMaxBody caps the request body of POST /api/file
const DefaultMaxBody int64 = 64 << 20

// Server serves projects from a backend
type Server struct {
	backend vfs.Backend
	logger  *zap.Logger
	maxBody int64
}

// Option configures a Server
type Option func(*Server)

// WithMaxBody overrides DefaultMaxBody
func WithMaxBody(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a file server over backend
func New(backend vfs.Backend, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{backend: backend, logger: logger, maxBody: DefaultMaxBody}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts the routes under /api
func (s *Server) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/projects", s.ListProjects)
	api.POST("/projects", s.CreateProject)
	api.GET("/files", s.ListFiles)
	api.GET("/stat", s.Stat)
	api.GET("/file", s.ReadFile)
	api.POST("/file", s.WriteFile)
	api.DELETE("/file", s.DeleteFile)
	api.POST("/dir", s.MakeDir)
}

// Status maps a backend error onto an HTTP status
func Status(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch vfs.Classify(err) {
	case vfs.CodeNotFound:
		return http.StatusNotFound
	case vfs.CodePathTraversal, vfs.CodeInvalidName, vfs.CodeCancelled:
		return http.StatusBadRequest
	case vfs.CodeNameConflict, vfs.CodeNotEmpty:
		return http.StatusConflict
	case vfs.CodePermissionDenied:
		return http.StatusForbidden
	case vfs.CodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.String("path", c.Request.URL.RequestURI()), zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.String("path", c.Request.URL.RequestURI()), zap.Error(err))
	}
	c.JSON(status, MessageResponse{Message: msg + ": " + err.Error(), Code: string(vfs.Classify(err))})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, MessageResponse{Message: msg, Code: string(vfs.CodeInvalidName)})
}
