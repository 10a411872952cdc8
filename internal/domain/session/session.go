package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/clipboard"
	"github.com/GriffinCanCode/modide/internal/domain/export"
	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/domain/mutation"
	"github.com/GriffinCanCode/modide/internal/domain/navigation"
	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/domain/search"
	"github.com/GriffinCanCode/modide/internal/domain/transfer"
	"github.com/GriffinCanCode/modide/internal/domain/tree"
	"github.com/GriffinCanCode/modide/internal/shared/id"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

var (
	ErrBusy           = errors.New("another operation is in progress")
	ErrClosed         = errors.New("session closed")
	ErrClipboardEmpty = errors.New("clipboard is empty")
	ErrNoOpenFile     = errors.New("no file is open")
)

// State is a snapshot of a session for the UI
type State struct {
	ID        string           `json:"id"`
	Project   string           `json:"project"`
	Backend   string           `json:"backend"`
	Mode      vfs.Mode         `json:"mode"`
	Path      []string         `json:"path"`
	Clipboard *clipboard.Entry `json:"clipboard,omitempty"`
	OpenFile  string           `json:"open_file,omitempty"`
	Busy      bool             `json:"busy"`
	CreatedAt time.Time        `json:"created_at"`
}

// Session is one opened project
type Session struct {
	id        id.SessionID
	project   string
	mode      vfs.Mode
	createdAt time.Time

	backend  vfs.Backend
	gate     *permission.Gate
	lister   *listing.Lister
	nav      *navigation.Controller
	clip     *clipboard.Controller
	view     *tree.View
	ops      *mutation.Ops
	engine   *transfer.Engine
	exporter *export.Exporter
	searcher *search.Searcher

	notifier Notifier
	recorder Recorder
	logger   *zap.Logger

	busy   atomic.Bool
	closed atomic.Bool

	mu       sync.Mutex
	openFile []string
}

// ID returns the session id
func (s *Session) ID() id.SessionID {
	return s.id
}

// Project returns the project name
func (s *Session) Project() string {
	return s.project
}

// State returns a snapshot without taking the busy flag
func (s *Session) State() State {
	st := State{
		ID:        s.id.String(),
		Project:   s.project,
		Backend:   s.backend.Type(),
		Mode:      s.mode,
		Path:      s.nav.Path(),
		Busy:      s.busy.Load(),
		CreatedAt: s.createdAt,
	}
	if e, ok := s.clip.Peek(); ok {
		st.Clipboard = &e
	}
	s.mu.Lock()
	st.OpenFile = vfs.JoinPath(s.openFile...)
	s.mu.Unlock()
	return st
}

// begin claims the busy flag and returns the function releasing it
func (s *Session) begin(op string) (func(error), error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s: %w", op, ErrBusy)
	}
	start := time.Now()
	return func(err error) {
		s.busy.Store(false)
		s.recorder.RecordOperation(op, time.Since(start), err)
		if err != nil {
			s.logger.Debug("operation failed", zap.String("op", op), zap.Error(err))
		}
	}, nil
}

func (s *Session) notify(typ string, level Level, path, format string, args ...any) {
	s.notifier.Publish(Event{
		SessionID: s.id.String(),
		Type:      typ,
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
		Path:      path,
		Time:      time.Now(),
	})
}

// currentPath is the '/'-joined path of the viewed directory
func (s *Session) currentPath() string {
	return vfs.JoinPath(s.nav.Path()...)
}

func (s *Session) childPath(name string) string {
	return vfs.JoinPath(append(s.nav.Path(), name)...)
}

// handleNavErr publishes a reset and drops the now stale tree listings
func (s *Session) handleNavErr(err error) error {
	var reset *navigation.ResetError
	if errors.As(err, &reset) {
		s.view.Invalidate("")
		s.notify("navigation_reset", LevelWarning, vfs.JoinPath(reset.Path...),
			"folder no longer exists, returned to project root")
	}
	return err
}

// Entries lists the viewed directory. A vanished directory resets to root.
func (s *Session) Entries(ctx context.Context) (entries []vfs.Entry, err error) {
	done, err := s.begin("list")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	entries, err = s.lister.List(ctx, s.nav.Current())
	if errors.Is(err, vfs.ErrNotFound) && s.nav.Depth() > 0 {
		if rerr := s.nav.Refresh(ctx); rerr != nil {
			s.handleNavErr(rerr)
		}
		entries, err = s.lister.List(ctx, s.nav.Current())
	}
	return entries, err
}

// Descend enters a child directory
func (s *Session) Descend(ctx context.Context, name string) (err error) {
	done, err := s.begin("descend")
	if err != nil {
		return err
	}
	defer func() { done(err) }()

	if err := s.gate.Ensure(ctx, s.nav.Current(), vfs.ModeRead); err != nil {
		return err
	}
	return s.nav.Descend(ctx, name)
}

// Up moves to the parent directory
func (s *Session) Up(ctx context.Context) (err error) {
	done, err := s.begin("up")
	if err != nil {
		return err
	}
	defer func() { done(err) }()
	return s.handleNavErr(s.nav.AscendOne(ctx))
}

// Jump moves to the breadcrumb at index, negative for root
func (s *Session) Jump(ctx context.Context, index int) (err error) {
	done, err := s.begin("jump")
	if err != nil {
		return err
	}
	defer func() { done(err) }()
	return s.handleNavErr(s.nav.JumpTo(ctx, index))
}

// Home moves to the project root
func (s *Session) Home() error {
	done, err := s.begin("home")
	if err != nil {
		return err
	}
	s.nav.Home()
	done(nil)
	return nil
}

// Copy puts the named child of the viewed directory on the clipboard
func (s *Session) Copy(ctx context.Context, name string) error {
	return s.toClipboard(ctx, name, clipboard.OpCopy)
}

// Cut puts the named child on the clipboard for a move
func (s *Session) Cut(ctx context.Context, name string) error {
	return s.toClipboard(ctx, name, clipboard.OpCut)
}

func (s *Session) toClipboard(ctx context.Context, name string, op clipboard.Operation) (err error) {
	done, err := s.begin(string(op))
	if err != nil {
		return err
	}
	defer func() { done(err) }()

	e, err := s.lister.Lookup(ctx, s.nav.Current(), name)
	if err != nil {
		return err
	}
	if op == clipboard.OpCut {
		return s.clip.Cut(e)
	}
	return s.clip.Copy(e)
}

// ClearClipboard empties the clipboard
func (s *Session) ClearClipboard() {
	s.clip.Clear()
}

// Paste copies the clipboard entry into the viewed directory. alternate is
// the name to use if the original name is taken; empty means ask the caller
// through a *transfer.ConflictError.
func (s *Session) Paste(ctx context.Context, alternate string) (res *transfer.PasteResult, err error) {
	done, err := s.begin("paste")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	entry, ok := s.clip.Peek()
	if !ok {
		return nil, ErrClipboardEmpty
	}
	var prompter transfer.NamePrompter
	if alternate != "" {
		prompter = transfer.NamePrompterFunc(func(context.Context, string, string) (string, error) {
			return alternate, nil
		})
	}

	res, err = s.engine.Paste(ctx, entry, s.nav.Current(), prompter)
	if err != nil {
		return nil, err
	}
	s.view.Forget(s.childPath(res.TargetName))
	s.view.Invalidate(s.currentPath())
	s.recorder.RecordTransfer("paste", res.Report.Files, res.Report.Directories, len(res.Report.Failures), res.Report.Bytes)

	target := s.childPath(res.TargetName)
	if !res.Report.OK() {
		s.notify("paste_incomplete", LevelWarning, target,
			"%d entries could not be copied", len(res.Report.Failures))
	}
	if res.OriginalRetained {
		s.clip.Clear()
		s.notify("cut_original_retained", LevelWarning, target,
			"%s was copied; delete the original manually", entry.Name)
	} else {
		s.notify("pasted", LevelInfo, target, "pasted %s", res.TargetName)
	}
	return res, nil
}

// Rename renames a child of the viewed directory
func (s *Session) Rename(ctx context.Context, name, newName string) (report *transfer.Report, err error) {
	done, err := s.begin("rename")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	dir := s.nav.Current()
	e, err := s.lister.Lookup(ctx, dir, name)
	if err != nil {
		return nil, err
	}
	report, err = s.engine.Rename(ctx, dir, e, newName)
	if report != nil && report.Written() {
		s.view.Forget(s.childPath(newName))
		s.view.Invalidate(s.currentPath())
	}

	var phase *transfer.PhaseError
	if errors.As(err, &phase) && phase.Committed {
		s.notify("rename_incomplete", LevelError, s.childPath(newName),
			"rename of %s stopped in %s phase; check both names", name, phase.Phase)
	}
	if err != nil {
		return report, err
	}
	s.view.Forget(s.childPath(name))
	s.retargetOpenFile(s.childPath(name), s.childPath(newName))
	return report, nil
}
