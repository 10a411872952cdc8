// Package mutation creates, deletes, uploads and saves single entries.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// ErrNotConfirmed is returned by Delete when the user did not confirm
var ErrNotConfirmed = errors.New("deletion not confirmed")

// OverwriteConfirmer asks whether an existing file may be replaced
type OverwriteConfirmer interface {
	ConfirmOverwrite(ctx context.Context, name string) (bool, error)
}

// ConfirmFunc adapts a function to OverwriteConfirmer
type ConfirmFunc func(ctx context.Context, name string) (bool, error)

// ConfirmOverwrite calls f
func (f ConfirmFunc) ConfirmOverwrite(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}

// DeleteRequest describes one deletion
type DeleteRequest struct {
	Name      string
	Recursive bool
	Confirmed bool
}

// UploadResult describes one uploaded file
type UploadResult struct {
	Name        string `json:"name"`
	Overwritten bool   `json:"overwritten"`
	Skipped     bool   `json:"skipped"`
	Bytes       int    `json:"bytes"`
}

// Ops performs single-entry mutations
type Ops struct {
	backend vfs.Backend
	gate    *permission.Gate
	logger  *zap.Logger
}

// NewOps creates mutation operations
func NewOps(backend vfs.Backend, gate *permission.Gate, logger *zap.Logger) *Ops {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ops{backend: backend, gate: gate, logger: logger}
}

// CreateFile makes an empty file. An existing entry of either kind is a conflict.
func (o *Ops) CreateFile(ctx context.Context, dir vfs.Handle, name string) (vfs.Handle, error) {
	if err := o.prepareCreate(ctx, dir, name); err != nil {
		return nil, err
	}
	h, err := o.backend.GetFileHandle(ctx, dir, name, true)
	if err != nil {
		return nil, fmt.Errorf("create file %s: %w", name, err)
	}
	o.logger.Info("created file", zap.String("dir", dir.Name()), zap.String("name", name))
	return h, nil
}

// CreateDirectory makes an empty directory. An existing entry of either kind is a conflict.
func (o *Ops) CreateDirectory(ctx context.Context, dir vfs.Handle, name string) (vfs.Handle, error) {
	if err := o.prepareCreate(ctx, dir, name); err != nil {
		return nil, err
	}
	h, err := o.backend.GetDirectoryHandle(ctx, dir, name, true)
	if err != nil {
		return nil, fmt.Errorf("create directory %s: %w", name, err)
	}
	o.logger.Info("created directory", zap.String("dir", dir.Name()), zap.String("name", name))
	return h, nil
}

func (o *Ops) prepareCreate(ctx context.Context, dir vfs.Handle, name string) error {
	if err := vfs.ValidateName(name); err != nil {
		return err
	}
	if err := o.gate.Ensure(ctx, dir, vfs.ModeReadWrite); err != nil {
		return err
	}
	_, exists, err := vfs.Stat(ctx, o.backend, dir, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create %s: %w", name, vfs.ErrNameConflict)
	}
	return nil
}

// Delete removes one entry and reports its kind
func (o *Ops) Delete(ctx context.Context, dir vfs.Handle, req DeleteRequest) (vfs.Kind, error) {
	if !req.Confirmed {
		return "", fmt.Errorf("delete %s: %w", req.Name, ErrNotConfirmed)
	}
	if err := o.gate.Ensure(ctx, dir, vfs.ModeReadWrite); err != nil {
		return "", err
	}

	kind, exists, err := vfs.Stat(ctx, o.backend, dir, req.Name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("delete %s: %w", req.Name, vfs.ErrNotFound)
	}
	if kind.IsDir() && !req.Recursive {
		sub, err := o.backend.GetDirectoryHandle(ctx, dir, req.Name, false)
		if err != nil {
			return "", err
		}
		children, err := o.backend.ListChildren(ctx, sub)
		if err != nil {
			return "", err
		}
		if len(children) > 0 {
			return "", fmt.Errorf("delete %s: %w", req.Name, vfs.ErrNotEmpty)
		}
	}

	if err := o.backend.RemoveEntry(ctx, dir, req.Name, req.Recursive); err != nil {
		return "", fmt.Errorf("delete %s: %w", req.Name, err)
	}
	o.logger.Info("deleted entry",
		zap.String("dir", dir.Name()),
		zap.String("name", req.Name),
		zap.Bool("recursive", req.Recursive))
	return kind, nil
}

// Upload writes data to dir/name, asking before replacing an existing file
func (o *Ops) Upload(ctx context.Context, dir vfs.Handle, name string, data []byte, confirmer OverwriteConfirmer) (*UploadResult, error) {
	if err := vfs.ValidateName(name); err != nil {
		return nil, err
	}
	if err := o.gate.Ensure(ctx, dir, vfs.ModeReadWrite); err != nil {
		return nil, err
	}

	result := &UploadResult{Name: name}
	kind, exists, err := vfs.Stat(ctx, o.backend, dir, name)
	if err != nil {
		return nil, err
	}
	if exists {
		if kind.IsDir() {
			return nil, fmt.Errorf("upload %s: %w", name, vfs.ErrNameConflict)
		}
		ok := false
		if confirmer != nil {
			if ok, err = confirmer.ConfirmOverwrite(ctx, name); err != nil {
				return nil, err
			}
		}
		if !ok {
			result.Skipped = true
			return result, nil
		}
		result.Overwritten = true
	}

	if err := o.write(ctx, dir, name, data); err != nil {
		return nil, err
	}
	result.Bytes = len(data)
	return result, nil
}

// Save creates or replaces dir/name without asking
func (o *Ops) Save(ctx context.Context, dir vfs.Handle, name string, data []byte) error {
	if err := vfs.ValidateName(name); err != nil {
		return err
	}
	if err := o.gate.Ensure(ctx, dir, vfs.ModeReadWrite); err != nil {
		return err
	}
	return o.write(ctx, dir, name, data)
}

func (o *Ops) write(ctx context.Context, dir vfs.Handle, name string, data []byte) error {
	h, err := o.backend.GetFileHandle(ctx, dir, name, true)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	if err := o.backend.WriteBytes(ctx, h, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	o.logger.Debug("wrote file", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}
