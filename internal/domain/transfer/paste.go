package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/clipboard"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// NamePrompter asks for a different name when the target is taken.
// Returning an empty name cancels.
type NamePrompter interface {
	AlternateName(ctx context.Context, name, suggestion string) (string, error)
}

// NamePrompterFunc adapts a function to NamePrompter
type NamePrompterFunc func(ctx context.Context, name, suggestion string) (string, error)

// AlternateName calls f
func (f NamePrompterFunc) AlternateName(ctx context.Context, name, suggestion string) (string, error) {
	return f(ctx, name, suggestion)
}

// PasteResult describes a finished paste
type PasteResult struct {
	TargetName string  `json:"target_name"`
	Report     *Report `json:"report"`
	// OriginalRetained is set for cut: the source still exists and must be removed by hand
	OriginalRetained bool `json:"original_retained"`
}

// Paste copies the clipboard entry into dest. A nil prompter turns a name
// conflict into a *ConflictError.
func (e *Engine) Paste(ctx context.Context, entry clipboard.Entry, dest vfs.Handle, prompter NamePrompter) (*PasteResult, error) {
	if err := e.gate.Ensure(ctx, dest, vfs.ModeReadWrite); err != nil {
		return nil, err
	}

	target, err := e.targetName(ctx, entry.Name, dest, prompter)
	if err != nil {
		return nil, err
	}

	src := vfs.Entry{Name: entry.Name, Kind: vfs.KindFile, Handle: entry.Handle}
	if entry.IsFolder {
		src.Kind = vfs.KindDirectory
	}
	report, err := e.Copy(ctx, src, dest, target)
	if err != nil {
		return nil, fmt.Errorf("paste %s: %w", entry.Name, err)
	}

	e.logger.Info("pasted entry",
		zap.String("source", entry.Name),
		zap.String("target", target),
		zap.String("operation", string(entry.Operation)),
		zap.Int("failures", len(report.Failures)))

	return &PasteResult{
		TargetName:       target,
		Report:           report,
		OriginalRetained: entry.Operation == clipboard.OpCut,
	}, nil
}

func (e *Engine) targetName(ctx context.Context, name string, dest vfs.Handle, prompter NamePrompter) (string, error) {
	_, taken, err := vfs.Stat(ctx, e.backend, dest, name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}

	suggestion := Suggest(name)
	if prompter == nil {
		return "", &ConflictError{Name: name, Suggestion: suggestion}
	}
	alt, err := prompter.AlternateName(ctx, name, suggestion)
	if err != nil {
		return "", err
	}
	if alt == "" {
		return "", fmt.Errorf("paste %s: %w", name, vfs.ErrUserCancelled)
	}
	if err := vfs.ValidateName(alt); err != nil {
		return "", err
	}

	_, taken, err = vfs.Stat(ctx, e.backend, dest, alt)
	if err != nil {
		return "", err
	}
	if taken {
		return "", &ConflictError{Name: alt, Suggestion: Suggest(alt)}
	}
	return alt, nil
}
