package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/export"
	"github.com/GriffinCanCode/modide/internal/domain/mutation"
	"github.com/GriffinCanCode/modide/internal/domain/navigation"
	"github.com/GriffinCanCode/modide/internal/domain/search"
	"github.com/GriffinCanCode/modide/internal/domain/session"
	"github.com/GriffinCanCode/modide/internal/domain/transfer"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Codes beyond the storage taxonomy
const (
	codeBusy           = "busy"
	codeClosed         = "session_closed"
	codeClipboardEmpty = "clipboard_empty"
	codeNoOpenFile     = "no_open_file"
	codeNotConfirmed   = "not_confirmed"
	codeBadPattern     = "bad_pattern"
	codeBadFormat      = "bad_format"
	codeBadRequest     = "bad_request"
	codeTooLarge       = "too_large"
	codeUnavailable    = "unavailable"
)

// classify returns the status and client code for err
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, codeBusy
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone, codeClosed
	case errors.Is(err, session.ErrClipboardEmpty):
		return http.StatusConflict, codeClipboardEmpty
	case errors.Is(err, session.ErrNoOpenFile):
		return http.StatusConflict, codeNoOpenFile
	case errors.Is(err, mutation.ErrNotConfirmed):
		return http.StatusPreconditionRequired, codeNotConfirmed
	case errors.Is(err, search.ErrBadPattern):
		return http.StatusBadRequest, codeBadPattern
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest, codeBadFormat
	}

	code := vfs.Classify(err)
	switch code {
	case vfs.CodeNotFound:
		return http.StatusNotFound, string(code)
	case vfs.CodePermissionDenied:
		return http.StatusForbidden, string(code)
	case vfs.CodeNameConflict, vfs.CodeNotEmpty:
		return http.StatusConflict, string(code)
	case vfs.CodePathTraversal, vfs.CodeInvalidName, vfs.CodeCancelled:
		return http.StatusBadRequest, string(code)
	case vfs.CodeUnsupported:
		return http.StatusNotImplemented, string(code)
	default:
		return http.StatusInternalServerError, string(code)
	}
}

// fail writes err as JSON. Typed errors add the fields a client needs to
// recover: the suggested name of a conflict, the phase of a split rename, or
// the path that was lost by a navigation reset.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, code := classify(err)
	body := gin.H{"error": err.Error(), "code": code}

	var conflict *transfer.ConflictError
	if errors.As(err, &conflict) {
		body["name"] = conflict.Name
		body["suggestion"] = conflict.Suggestion
	}
	var phase *transfer.PhaseError
	if errors.As(err, &phase) {
		body["phase"] = phase.Phase
		body["committed"] = phase.Committed
	}
	var reset *navigation.ResetError
	if errors.As(err, &reset) {
		body["reset"] = true
		body["lost_path"] = reset.Path
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": codeBadRequest})
}
