// Package permission ensures a capability is usable before it is touched.
package permission

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Gate checks and requests permissions on handles. Results are never cached,
// since the user can revoke a grant at any time.
type Gate struct {
	backend vfs.Backend
	logger  *zap.Logger
}

// NewGate creates a gate over backend
func NewGate(backend vfs.Backend, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{backend: backend, logger: logger}
}

// Ensure succeeds when mode is granted on h, prompting at most once
func (g *Gate) Ensure(ctx context.Context, h vfs.Handle, mode vfs.Mode) error {
	state, err := g.backend.QueryPermission(ctx, h, mode)
	if err != nil {
		return fmt.Errorf("query permission on %s: %w", h.Name(), err)
	}
	if state == vfs.PermissionGranted {
		return nil
	}

	state, err = g.backend.RequestPermission(ctx, h, mode)
	if err != nil {
		return fmt.Errorf("request permission on %s: %w", h.Name(), err)
	}
	if state != vfs.PermissionGranted {
		g.logger.Warn("permission not granted",
			zap.String("handle", h.Name()),
			zap.String("mode", string(mode)),
			zap.String("state", string(state)))
		return fmt.Errorf("%s (%s): %w", h.Name(), mode, vfs.ErrPermissionDenied)
	}
	return nil
}
