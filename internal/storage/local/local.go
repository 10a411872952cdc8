// Package local implements vfs.Backend over a directory on disk.
//
// Each sub-directory of the base is a project. Handles carry the project and
// a slash-separated path below it, built only from validated names, so no
// handle can point outside the base. Symlinks and special files are not
// exposed.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type handle struct {
	project string
	rel     string
	kind    vfs.Kind
}

func (h *handle) Name() string {
	if h.rel == "" {
		return h.project
	}
	return path.Base(h.rel)
}

func (h *handle) Kind() vfs.Kind { return h.kind }

func (h *handle) IsSameEntry(other vfs.Handle) bool {
	o, ok := other.(*handle)
	return ok && o.project == h.project && o.rel == h.rel && o.kind == h.kind
}

// Backend serves projects from sub-directories of a base directory
type Backend struct {
	base     string
	readOnly bool
}

// Option configures a Backend
type Option func(*Backend)

// WithReadOnly denies readwrite access to every project
func WithReadOnly() Option {
	return func(b *Backend) {
		b.readOnly = true
	}
}

// New opens base, creating it unless the backend is read-only
func New(base string, opts ...Option) (*Backend, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base %s: %w", base, err)
	}
	b := &Backend{base: abs}
	for _, opt := range opts {
		opt(b)
	}

	if !b.readOnly {
		if err := os.MkdirAll(abs, dirPerm); err != nil {
			return nil, fmt.Errorf("create base %s: %w", abs, err)
		}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open base %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base %s is not a directory", abs)
	}
	return b, nil
}

// Type returns the backend identifier
func (b *Backend) Type() string {
	return "local"
}

// Base returns the absolute base directory
func (b *Backend) Base() string {
	return b.base
}

// ReadOnly reports whether writes are refused
func (b *Backend) ReadOnly() bool {
	return b.readOnly
}

// ListProjects returns the sub-directories of the base in sorted order
func (b *Backend) ListProjects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(b.base)
	if err != nil {
		return nil, mapErr("list projects", b.base, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateProject makes an empty project directory
func (b *Backend) CreateProject(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := vfs.ValidateName(name); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("create project %s: %w", name, vfs.ErrPermissionDenied)
	}
	if err := os.Mkdir(filepath.Join(b.base, name), dirPerm); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("project %s: %w", name, vfs.ErrNameConflict)
		}
		return mapErr("create project", name, err)
	}
	return nil
}

// AcquireRoot opens an existing project directory
func (b *Backend) AcquireRoot(ctx context.Context, project string, mode vfs.Mode) (vfs.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if project == "" {
		return nil, fmt.Errorf("acquire root: %w", vfs.ErrUserCancelled)
	}
	if err := vfs.ValidateName(project); err != nil {
		return nil, err
	}
	h := &handle{project: project, kind: vfs.KindDirectory}
	if _, err := b.stat(h); err != nil {
		return nil, err
	}
	if b.state(mode) == vfs.PermissionDenied {
		return nil, fmt.Errorf("project %s (%s): %w", project, mode, vfs.ErrPermissionDenied)
	}
	return h, nil
}

// QueryPermission reports read as granted and readwrite as denied when read-only
func (b *Backend) QueryPermission(ctx context.Context, h vfs.Handle, mode vfs.Mode) (vfs.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := unwrap(h); err != nil {
		return "", err
	}
	return b.state(mode), nil
}

// RequestPermission never prompts; the answer is the same as QueryPermission
func (b *Backend) RequestPermission(ctx context.Context, h vfs.Handle, mode vfs.Mode) (vfs.PermissionState, error) {
	return b.QueryPermission(ctx, h, mode)
}

// GetDirectoryHandle resolves or creates a child directory
func (b *Backend) GetDirectoryHandle(ctx context.Context, dir vfs.Handle, name string, create bool) (vfs.Handle, error) {
	parent, err := b.childOf(ctx, dir, name)
	if err != nil {
		return nil, err
	}
	h := parent.child(name, vfs.KindDirectory)

	if create {
		if err := b.writable("create", name); err != nil {
			return nil, err
		}
		err := os.Mkdir(b.abs(h), dirPerm)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, mapErr("create directory", name, err)
		}
	}
	if _, err := b.stat(h); err != nil {
		return nil, err
	}
	return h, nil
}

// GetFileHandle resolves or creates a child file
func (b *Backend) GetFileHandle(ctx context.Context, dir vfs.Handle, name string, create bool) (vfs.Handle, error) {
	parent, err := b.childOf(ctx, dir, name)
	if err != nil {
		return nil, err
	}
	h := parent.child(name, vfs.KindFile)

	if create {
		if err := b.writable("create", name); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(b.abs(h), os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err == nil {
			if err := f.Close(); err != nil {
				return nil, vfs.IOError("create file", name, err)
			}
			return h, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, mapErr("create file", name, err)
		}
	}
	if _, err := b.stat(h); err != nil {
		return nil, err
	}
	return h, nil
}

// RemoveEntry deletes a child. Non-empty directories need recursive.
func (b *Backend) RemoveEntry(ctx context.Context, dir vfs.Handle, name string, recursive bool) error {
	parent, err := b.childOf(ctx, dir, name)
	if err != nil {
		return err
	}
	if err := b.writable("remove", name); err != nil {
		return err
	}

	target := filepath.Join(b.abs(parent), name)
	info, err := os.Lstat(target)
	if err != nil {
		return mapErr("remove", name, err)
	}
	if info.IsDir() && !recursive {
		children, err := os.ReadDir(target)
		if err != nil {
			return mapErr("remove", name, err)
		}
		if len(children) > 0 {
			return fmt.Errorf("%s: %w", name, vfs.ErrNotEmpty)
		}
	}
	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		return mapErr("remove", name, err)
	}
	return nil
}

// ListChildren returns regular files and directories of dir
func (b *Backend) ListChildren(ctx context.Context, dir vfs.Handle) ([]vfs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := unwrap(dir)
	if err != nil {
		return nil, err
	}
	if h.kind != vfs.KindDirectory {
		return nil, fmt.Errorf("%s is a file: %w", h.Name(), vfs.ErrNameConflict)
	}

	dirents, err := os.ReadDir(b.abs(h))
	if err != nil {
		return nil, mapErr("list", h.Name(), err)
	}
	entries := make([]vfs.Entry, 0, len(dirents))
	for _, d := range dirents {
		kind, ok := kindOf(d.Type())
		if !ok {
			continue
		}
		entries = append(entries, vfs.Entry{
			Name:   d.Name(),
			Kind:   kind,
			Handle: h.child(d.Name(), kind),
		})
	}
	return entries, nil
}

// ReadBytes returns the file content
func (b *Backend) ReadBytes(ctx context.Context, file vfs.Handle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := unwrap(file)
	if err != nil {
		return nil, err
	}
	if _, err := b.stat(h); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.abs(h))
	if err != nil {
		return nil, mapErr("read", h.Name(), err)
	}
	return data, nil
}

// WriteBytes replaces the file content through a temp file and rename
func (b *Backend) WriteBytes(ctx context.Context, file vfs.Handle, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := unwrap(file)
	if err != nil {
		return err
	}
	if err := b.writable("write", h.Name()); err != nil {
		return err
	}
	if _, err := b.stat(h); err != nil {
		return err
	}

	target := b.abs(h)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".modide-*.tmp")
	if err != nil {
		return mapErr("write", h.Name(), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vfs.IOError("write", h.Name(), err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return vfs.IOError("write", h.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return vfs.IOError("write", h.Name(), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return mapErr("write", h.Name(), err)
	}
	return nil
}

func (h *handle) child(name string, kind vfs.Kind) *handle {
	return &handle{project: h.project, rel: path.Join(h.rel, name), kind: kind}
}

func (b *Backend) abs(h *handle) string {
	return filepath.Join(b.base, h.project, filepath.FromSlash(h.rel))
}

func (b *Backend) state(mode vfs.Mode) vfs.PermissionState {
	if mode == vfs.ModeReadWrite && b.readOnly {
		return vfs.PermissionDenied
	}
	return vfs.PermissionGranted
}

func (b *Backend) writable(op, name string) error {
	if b.readOnly {
		return fmt.Errorf("%s %s: %w", op, name, vfs.ErrPermissionDenied)
	}
	return nil
}

// childOf validates name and checks that dir is still a live directory
func (b *Backend) childOf(ctx context.Context, dir vfs.Handle, name string) (*handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := vfs.ValidateName(name); err != nil {
		return nil, err
	}
	h, err := unwrap(dir)
	if err != nil {
		return nil, err
	}
	if h.kind != vfs.KindDirectory {
		return nil, fmt.Errorf("%s is a file: %w", h.Name(), vfs.ErrNameConflict)
	}
	if _, err := b.stat(h); err != nil {
		return nil, err
	}
	return h, nil
}

// stat checks that h still exists with its recorded kind
func (b *Backend) stat(h *handle) (fs.FileInfo, error) {
	info, err := os.Lstat(b.abs(h))
	if err != nil {
		return nil, mapErr("stat", h.Name(), err)
	}
	kind, ok := kindOf(info.Mode().Type())
	if !ok {
		return nil, fmt.Errorf("%s is not a regular file or directory: %w", h.Name(), vfs.ErrNotFound)
	}
	if kind != h.kind {
		return nil, fmt.Errorf("%s is a %s: %w", h.Name(), kind, vfs.ErrNameConflict)
	}
	return info, nil
}

func kindOf(t fs.FileMode) (vfs.Kind, bool) {
	switch {
	case t.IsDir():
		return vfs.KindDirectory, true
	case t.IsRegular():
		return vfs.KindFile, true
	default:
		return "", false
	}
}

func unwrap(h vfs.Handle) (*handle, error) {
	lh, ok := h.(*handle)
	if !ok || lh == nil {
		return nil, fmt.Errorf("foreign handle %T: %w", h, vfs.ErrUnsupported)
	}
	return lh, nil
}

func mapErr(op, name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, name, vfs.ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s %s: %w", op, name, vfs.ErrPermissionDenied)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s %s: %w", op, name, vfs.ErrNameConflict)
	default:
		return vfs.IOError(op, name, err)
	}
}
