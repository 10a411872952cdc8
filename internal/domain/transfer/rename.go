package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Rename copies entry to newName inside parent, then removes the original.
// A failure after the copy leaves both names in place.
func (e *Engine) Rename(ctx context.Context, parent vfs.Handle, entry vfs.Entry, newName string) (*Report, error) {
	if err := vfs.ValidateName(newName); err != nil {
		return nil, err
	}
	if newName == entry.Name {
		return &Report{}, nil
	}
	if err := e.gate.Ensure(ctx, parent, vfs.ModeReadWrite); err != nil {
		return nil, err
	}

	_, taken, err := vfs.Stat(ctx, e.backend, parent, newName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("rename %s to %s: %w", entry.Name, newName, vfs.ErrNameConflict)
	}

	report, err := e.Copy(ctx, entry, parent, newName)
	if err == nil {
		err = report.Err()
	}
	if err != nil {
		return report, &PhaseError{Op: "rename", Phase: PhaseCopy, Committed: report.Written(), Err: err}
	}

	if err := e.backend.RemoveEntry(ctx, parent, entry.Name, entry.IsDir()); err != nil {
		e.logger.Error("rename left both names in place",
			zap.String("old", entry.Name),
			zap.String("new", newName),
			zap.Error(err))
		return report, &PhaseError{Op: "rename", Phase: PhaseDelete, Committed: true, Err: err}
	}

	e.logger.Info("renamed entry", zap.String("old", entry.Name), zap.String("new", newName))
	return report, nil
}
