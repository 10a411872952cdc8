package transfer

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

var (
	// ErrDepthExceeded marks a directory skipped because it sits deeper than MaxDepth
	ErrDepthExceeded = errors.New("maximum copy depth exceeded")
	// ErrIncomplete means some entries of a subtree failed to copy
	ErrIncomplete = errors.New("copy incomplete")
)

// Failure is one entry that could not be copied
type Failure struct {
	Path    string `json:"path"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// Report summarizes a best-effort subtree copy
type Report struct {
	Files       int       `json:"files"`
	Directories int       `json:"directories"`
	Bytes       int64     `json:"bytes"`
	Failures    []Failure `json:"failures,omitempty"`
}

// OK reports whether every entry was copied
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Written reports whether anything was created at the destination
func (r *Report) Written() bool {
	return r.Files > 0 || r.Directories > 0
}

// Err folds the failures into one error, nil when there are none
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	first := r.Failures[0]
	return fmt.Errorf("%w: %d entries failed, first %s: %w", ErrIncomplete, len(r.Failures), first.Path, first.Err)
}

// Fail records a failed entry
func (r *Report) Fail(path string, err error) {
	r.Failures = append(r.Failures, Failure{Path: path, Message: err.Error(), Err: err})
}

// Phase of a multi-step operation
type Phase string

const (
	PhaseCopy   Phase = "copy"
	PhaseDelete Phase = "delete"
)

// PhaseError reports which step of a multi-step operation failed and whether
// the destination was already modified
type PhaseError struct {
	Op        string
	Phase     Phase
	Committed bool
	Err       error
}

func (e *PhaseError) Error() string {
	state := "nothing written"
	if e.Committed {
		state = "destination written"
	}
	return fmt.Sprintf("%s failed in %s phase (%s): %v", e.Op, e.Phase, state, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// ConflictError is a name conflict carrying a suggested alternative
type ConflictError struct {
	Name       string
	Suggestion string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists (try %s)", e.Name, e.Suggestion)
}

func (e *ConflictError) Unwrap() error {
	return vfs.ErrNameConflict
}

// Suggest returns the default alternate name for a conflict
func Suggest(name string) string {
	return name + "_copy"
}
