// Package navigation tracks the path from the project root to the directory
// being viewed and resolves it back to a handle.
package navigation

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// ResetError is returned when a re-walk failed and the controller fell back to the root
type ResetError struct {
	Path []string
	Err  error
}

func (e *ResetError) Error() string {
	return fmt.Sprintf("navigation reset to root while walking /%s: %v", vfs.JoinPath(e.Path...), e.Err)
}

func (e *ResetError) Unwrap() error {
	return e.Err
}

// Controller holds root, path and the current directory handle
type Controller struct {
	backend vfs.Backend
	logger  *zap.Logger

	mu      sync.RWMutex
	root    vfs.Handle
	path    []string
	current vfs.Handle
}

// NewController starts at root
func NewController(backend vfs.Backend, root vfs.Handle, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{backend: backend, logger: logger, root: root, current: root}
}

// Root returns the capability root
func (c *Controller) Root() vfs.Handle {
	return c.root
}

// Current returns the handle of the viewed directory
func (c *Controller) Current() vfs.Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Path returns a copy of the segments from root
func (c *Controller) Path() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.path...)
}

// Depth is the number of segments below root
func (c *Controller) Depth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.path)
}

// Descend enters the child directory name. State is unchanged on failure.
func (c *Controller) Descend(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.backend.GetDirectoryHandle(ctx, c.current, name, false)
	if err != nil {
		return fmt.Errorf("descend into %s: %w", name, err)
	}
	c.current = next
	c.path = append(c.path, name)
	return nil
}

// AscendOne moves to the parent by walking again from root. No-op at root.
func (c *Controller) AscendOne(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.path) == 0 {
		return nil
	}
	return c.walk(ctx, c.path[:len(c.path)-1])
}

// JumpTo moves to the breadcrumb at index. A negative index is the root crumb.
func (c *Controller) JumpTo(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 {
		c.reset()
		return nil
	}
	if index >= len(c.path) {
		return fmt.Errorf("breadcrumb %d beyond depth %d: %w", index, len(c.path), vfs.ErrNotFound)
	}
	return c.walk(ctx, c.path[:index+1])
}

// Home returns to root without I/O
func (c *Controller) Home() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Refresh walks the current path again so stale handles are replaced
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.walk(ctx, c.path)
}

// Resolve walks root through segs without moving the controller
func (c *Controller) Resolve(ctx context.Context, segs []string) (vfs.Handle, error) {
	return vfs.Resolve(ctx, c.backend, c.root, segs)
}

// walk must be called with mu held
func (c *Controller) walk(ctx context.Context, segs []string) error {
	target := append([]string(nil), segs...)
	h, err := vfs.Resolve(ctx, c.backend, c.root, target)
	if err != nil {
		c.logger.Warn("navigation path no longer resolves, returning to root",
			zap.String("path", vfs.JoinPath(target...)),
			zap.Error(err))
		c.reset()
		return &ResetError{Path: target, Err: err}
	}
	c.current = h
	c.path = target
	return nil
}

func (c *Controller) reset() {
	c.current = c.root
	c.path = nil
}
