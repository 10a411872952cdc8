// Package transfer duplicates subtrees and emulates paste and rename on top of
// a backend that has neither move nor rename.
//
// Copies are best-effort: a failing child is logged and recorded in the Report
// while the traversal continues. Nothing is rolled back.
package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// DefaultMaxDepth bounds nesting below the copied folder
const DefaultMaxDepth = 64

// Engine copies entries between directories
type Engine struct {
	backend  vfs.Backend
	gate     *permission.Gate
	logger   *zap.Logger
	maxDepth int
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxDepth overrides DefaultMaxDepth
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// NewEngine creates a copy engine
func NewEngine(backend vfs.Backend, gate *permission.Gate, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{backend: backend, gate: gate, logger: logger, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Copy duplicates src into destParent under name
func (e *Engine) Copy(ctx context.Context, src vfs.Entry, destParent vfs.Handle, name string) (*Report, error) {
	if src.IsDir() {
		return e.CopyTree(ctx, src.Handle, destParent, name)
	}
	report := &Report{}
	n, err := e.CopyFile(ctx, src.Handle, destParent, name)
	if err != nil {
		return report, err
	}
	report.Files = 1
	report.Bytes = n
	return report, nil
}

// CopyFile reads src fully and writes it to a new or truncated file in destDir
func (e *Engine) CopyFile(ctx context.Context, src vfs.Handle, destDir vfs.Handle, name string) (int64, error) {
	if err := e.gate.Ensure(ctx, src, vfs.ModeRead); err != nil {
		return 0, err
	}
	if err := e.gate.Ensure(ctx, destDir, vfs.ModeReadWrite); err != nil {
		return 0, err
	}
	return e.copyFile(ctx, src, destDir, name)
}

func (e *Engine) copyFile(ctx context.Context, src vfs.Handle, destDir vfs.Handle, name string) (int64, error) {
	data, err := e.backend.ReadBytes(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	dst, err := e.backend.GetFileHandle(ctx, destDir, name, true)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	if err := e.backend.WriteBytes(ctx, dst, data); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	return int64(len(data)), nil
}

type task struct {
	src   vfs.Handle
	dest  vfs.Handle
	rel   string
	depth int
}

// CopyTree duplicates the directory src as destParent/name. Only failing to
// create the top-level directory is returned as an error; everything below
// is recorded in the Report. When the copy lands inside src it is not copied
// into itself again.
func (e *Engine) CopyTree(ctx context.Context, src vfs.Handle, destParent vfs.Handle, name string) (*Report, error) {
	report := &Report{}
	if err := e.gate.Ensure(ctx, src, vfs.ModeRead); err != nil {
		return report, err
	}
	if err := e.gate.Ensure(ctx, destParent, vfs.ModeReadWrite); err != nil {
		return report, err
	}

	top, err := e.backend.GetDirectoryHandle(ctx, destParent, name, true)
	if err != nil {
		return report, fmt.Errorf("create %s: %w", name, err)
	}
	report.Directories++

	stack := []task{{src: src, dest: top, rel: name}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := e.backend.ListChildren(ctx, t.src)
		if err != nil {
			e.record(report, t.rel, err)
			continue
		}
		for _, child := range children {
			rel := t.rel + "/" + child.Name
			if !child.IsDir() {
				n, err := e.copyFile(ctx, child.Handle, t.dest, child.Name)
				if err != nil {
					e.record(report, rel, err)
					continue
				}
				report.Files++
				report.Bytes += n
				continue
			}

			if vfs.IsSameEntry(child.Handle, top) {
				e.logger.Debug("skipping copy target inside its source", zap.String("path", rel))
				continue
			}
			if t.depth+1 > e.maxDepth {
				e.record(report, rel, ErrDepthExceeded)
				continue
			}
			dir, err := e.backend.GetDirectoryHandle(ctx, t.dest, child.Name, true)
			if err != nil {
				e.record(report, rel, fmt.Errorf("create %s: %w", child.Name, err))
				continue
			}
			report.Directories++
			stack = append(stack, task{src: child.Handle, dest: dir, rel: rel, depth: t.depth + 1})
		}
	}

	e.logger.Debug("copied tree",
		zap.String("source", src.Name()),
		zap.String("target", name),
		zap.Int("files", report.Files),
		zap.Int("directories", report.Directories),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

func (e *Engine) record(report *Report, path string, err error) {
	e.logger.Warn("copy entry failed", zap.String("path", path), zap.Error(err))
	report.Fail(path, err)
}
