// Package memory implements an origin-private storage area kept in memory.
//
// Every project is a detached directory tree. Removed entries are unlinked from
// their parent, so handles taken before the removal go stale and fail with
// vfs.ErrNotFound.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Prompter answers a permission request the way a user would
type Prompter interface {
	Prompt(ctx context.Context, name string, mode vfs.Mode) vfs.PermissionState
}

// PrompterFunc adapts a function to Prompter
type PrompterFunc func(ctx context.Context, name string, mode vfs.Mode) vfs.PermissionState

// Prompt calls f
func (f PrompterFunc) Prompt(ctx context.Context, name string, mode vfs.Mode) vfs.PermissionState {
	return f(ctx, name, mode)
}

type node struct {
	name     string
	kind     vfs.Kind
	parent   *node
	children map[string]*node
	data     []byte
}

type handle struct {
	project string
	n       *node
}

func (h *handle) Name() string  { return h.n.name }
func (h *handle) Kind() vfs.Kind { return h.n.kind }

func (h *handle) IsSameEntry(other vfs.Handle) bool {
	o, ok := other.(*handle)
	return ok && o.n == h.n
}

// Backend is an in-memory vfs.Backend with one tree per project
type Backend struct {
	mu       sync.RWMutex
	projects map[string]*node
	perms    map[vfs.Mode]vfs.PermissionState
	prompter Prompter
}

// Option configures a Backend
type Option func(*Backend)

// WithPermission sets the initial state for a mode
func WithPermission(mode vfs.Mode, state vfs.PermissionState) Option {
	return func(b *Backend) {
		b.perms[mode] = state
	}
}

// WithPrompter installs the prompter consulted by RequestPermission
func WithPrompter(p Prompter) Option {
	return func(b *Backend) {
		b.prompter = p
	}
}

// New creates an empty backend. Both modes start granted.
func New(opts ...Option) *Backend {
	b := &Backend{
		projects: make(map[string]*node),
		perms: map[vfs.Mode]vfs.PermissionState{
			vfs.ModeRead:      vfs.PermissionGranted,
			vfs.ModeReadWrite: vfs.PermissionGranted,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Type returns the backend identifier
func (b *Backend) Type() string {
	return "memory"
}

// SetPermission overrides the state for a mode
func (b *Backend) SetPermission(mode vfs.Mode, state vfs.PermissionState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perms[mode] = state
}

// Revoke drops a grant back to prompt
func (b *Backend) Revoke(mode vfs.Mode) {
	b.SetPermission(mode, vfs.PermissionPrompt)
}

// ListProjects returns project names in sorted order
func (b *Backend) ListProjects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.projects))
	for name := range b.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateProject adds an empty project
func (b *Backend) CreateProject(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := vfs.ValidateName(name); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.projects[name]; ok {
		return fmt.Errorf("project %s: %w", name, vfs.ErrNameConflict)
	}
	b.projects[name] = newDir(name, nil)
	return nil
}

// AcquireRoot opens an existing project
func (b *Backend) AcquireRoot(ctx context.Context, project string, mode vfs.Mode) (vfs.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if project == "" {
		return nil, fmt.Errorf("acquire root: %w", vfs.ErrUserCancelled)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	root, ok := b.projects[project]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", project, vfs.ErrNotFound)
	}
	if b.perms[mode] == vfs.PermissionDenied {
		return nil, fmt.Errorf("project %s (%s): %w", project, mode, vfs.ErrPermissionDenied)
	}
	return &handle{project: project, n: root}, nil
}

// QueryPermission reports the current state without prompting
func (b *Backend) QueryPermission(ctx context.Context, h vfs.Handle, mode vfs.Mode) (vfs.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := b.unwrap(h); err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state(mode), nil
}

// RequestPermission prompts when the state is prompt and records the answer
func (b *Backend) RequestPermission(ctx context.Context, h vfs.Handle, mode vfs.Mode) (vfs.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := b.unwrap(h); err != nil {
		return "", err
	}

	b.mu.RLock()
	current, prompter := b.state(mode), b.prompter
	b.mu.RUnlock()

	if current != vfs.PermissionPrompt {
		return current, nil
	}
	answer := vfs.PermissionDenied
	if prompter != nil {
		answer = prompter.Prompt(ctx, h.Name(), mode)
	}
	if answer == vfs.PermissionGranted || answer == vfs.PermissionDenied {
		b.SetPermission(mode, answer)
	}
	return answer, nil
}

// GetDirectoryHandle resolves or creates a child directory
func (b *Backend) GetDirectoryHandle(ctx context.Context, dir vfs.Handle, name string, create bool) (vfs.Handle, error) {
	return b.child(ctx, dir, name, vfs.KindDirectory, create)
}

// GetFileHandle resolves or creates a child file
func (b *Backend) GetFileHandle(ctx context.Context, dir vfs.Handle, name string, create bool) (vfs.Handle, error) {
	return b.child(ctx, dir, name, vfs.KindFile, create)
}

func (b *Backend) child(ctx context.Context, dir vfs.Handle, name string, kind vfs.Kind, create bool) (vfs.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := vfs.ValidateName(name); err != nil {
		return nil, err
	}
	h, err := b.unwrap(dir)
	if err != nil {
		return nil, err
	}

	if create {
		b.mu.Lock()
		defer b.mu.Unlock()
	} else {
		b.mu.RLock()
		defer b.mu.RUnlock()
	}

	parent, err := b.liveDir(h)
	if err != nil {
		return nil, err
	}
	if c, ok := parent.children[name]; ok {
		if c.kind != kind {
			return nil, fmt.Errorf("%s is a %s: %w", name, c.kind, vfs.ErrNameConflict)
		}
		return &handle{project: h.project, n: c}, nil
	}
	if !create {
		return nil, fmt.Errorf("%s: %w", name, vfs.ErrNotFound)
	}
	if b.state(vfs.ModeReadWrite) != vfs.PermissionGranted {
		return nil, fmt.Errorf("create %s: %w", name, vfs.ErrPermissionDenied)
	}

	var c *node
	if kind == vfs.KindDirectory {
		c = newDir(name, parent)
	} else {
		c = &node{name: name, kind: vfs.KindFile, parent: parent}
	}
	parent.children[name] = c
	return &handle{project: h.project, n: c}, nil
}

// RemoveEntry unlinks a child. Descendant handles go stale.
func (b *Backend) RemoveEntry(ctx context.Context, dir vfs.Handle, name string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := b.unwrap(dir)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state(vfs.ModeReadWrite) != vfs.PermissionGranted {
		return fmt.Errorf("remove %s: %w", name, vfs.ErrPermissionDenied)
	}
	parent, err := b.liveDir(h)
	if err != nil {
		return err
	}
	c, ok := parent.children[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, vfs.ErrNotFound)
	}
	if c.kind == vfs.KindDirectory && len(c.children) > 0 && !recursive {
		return fmt.Errorf("%s: %w", name, vfs.ErrNotEmpty)
	}
	delete(parent.children, name)
	c.parent = nil
	return nil
}

// ListChildren returns the children of dir in map order
func (b *Backend) ListChildren(ctx context.Context, dir vfs.Handle) ([]vfs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := b.unwrap(dir)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.state(vfs.ModeRead) != vfs.PermissionGranted {
		return nil, fmt.Errorf("list %s: %w", h.n.name, vfs.ErrPermissionDenied)
	}
	parent, err := b.liveDir(h)
	if err != nil {
		return nil, err
	}
	entries := make([]vfs.Entry, 0, len(parent.children))
	for name, c := range parent.children {
		entries = append(entries, vfs.Entry{
			Name:   name,
			Kind:   c.kind,
			Handle: &handle{project: h.project, n: c},
		})
	}
	return entries, nil
}

// ReadBytes returns a copy of the file content
func (b *Backend) ReadBytes(ctx context.Context, file vfs.Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := b.unwrap(file)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.state(vfs.ModeRead) != vfs.PermissionGranted {
		return nil, fmt.Errorf("read %s: %w", h.n.name, vfs.ErrPermissionDenied)
	}
	n, err := b.liveFile(h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(n.data))
	copy(out, n.data)
	return out, nil
}

// WriteBytes replaces the file content
func (b *Backend) WriteBytes(ctx context.Context, file vfs.Handle, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := b.unwrap(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state(vfs.ModeReadWrite) != vfs.PermissionGranted {
		return fmt.Errorf("write %s: %w", h.n.name, vfs.ErrPermissionDenied)
	}
	n, err := b.liveFile(h)
	if err != nil {
		return err
	}
	n.data = append([]byte(nil), data...)
	return nil
}

func newDir(name string, parent *node) *node {
	return &node{name: name, kind: vfs.KindDirectory, parent: parent, children: make(map[string]*node)}
}

func (b *Backend) unwrap(h vfs.Handle) (*handle, error) {
	mh, ok := h.(*handle)
	if !ok || mh == nil || mh.n == nil {
		return nil, fmt.Errorf("foreign handle %T: %w", h, vfs.ErrUnsupported)
	}
	return mh, nil
}

// state must be called with mu held
func (b *Backend) state(mode vfs.Mode) vfs.PermissionState {
	if s, ok := b.perms[mode]; ok {
		return s
	}
	return vfs.PermissionPrompt
}

// alive reports whether n is still reachable from its project root.
// Must be called with mu held.
func (b *Backend) alive(h *handle) bool {
	n := h.n
	for n.parent != nil {
		if n.parent.children[n.name] != n {
			return false
		}
		n = n.parent
	}
	return b.projects[h.project] == n
}

func (b *Backend) liveDir(h *handle) (*node, error) {
	if !b.alive(h) {
		return nil, fmt.Errorf("%s: stale handle: %w", h.n.name, vfs.ErrNotFound)
	}
	if h.n.kind != vfs.KindDirectory {
		return nil, fmt.Errorf("%s is a file: %w", h.n.name, vfs.ErrNameConflict)
	}
	return h.n, nil
}

func (b *Backend) liveFile(h *handle) (*node, error) {
	if !b.alive(h) {
		return nil, fmt.Errorf("%s: stale handle: %w", h.n.name, vfs.ErrNotFound)
	}
	if h.n.kind != vfs.KindFile {
		return nil, fmt.Errorf("%s is a directory: %w", h.n.name, vfs.ErrNameConflict)
	}
	return h.n, nil
}
