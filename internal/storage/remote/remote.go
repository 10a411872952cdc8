// Package remote implements vfs.Backend against the legacy network file server.
//
// Every handle is a project plus a slash-separated path; each operation is one
// or two REST calls, so handles go stale exactly when the server says 404.
package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/modide/internal/fileserver"
	"github.com/GriffinCanCode/modide/internal/vfs"
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

func (h *handle) child(name string, kind vfs.Kind) *handle {
	return &handle{project: h.project, rel: path.Join(h.rel, name), kind: kind}
}

// Backend talks to a file server at Config.BaseURL
type Backend struct {
	client   *client
	readOnly bool
}

// New creates a remote backend. No request is made until first use.
func New(cfg Config) (*Backend, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	cfg.defaults()
	return &Backend{client: newClient(cfg), readOnly: cfg.ReadOnly}, nil
}

// Type returns the backend identifier
func (b *Backend) Type() string {
	return "remote"
}

// ListProjects handles the catalog listing
func (b *Backend) ListProjects(ctx context.Context) ([]string, error) {
	var names []string
	_, err := b.client.do(ctx, http.MethodGet, "/projects", func(r *resty.Request) {
		r.SetResult(&names)
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CreateProject asks the server for a new empty project
func (b *Backend) CreateProject(ctx context.Context, name string) error {
	if err := vfs.ValidateName(name); err != nil {
		return err
	}
	if b.readOnly {
		return fmt.Errorf("create project %s: %w", name, vfs.ErrPermissionDenied)
	}
	_, err := b.client.do(ctx, http.MethodPost, "/projects", func(r *resty.Request) {
		r.SetBody(fileserver.ProjectRequest{Name: name})
	})
	return err
}

// AcquireRoot checks that the project exists on the server
func (b *Backend) AcquireRoot(ctx context.Context, project string, mode vfs.Mode) (vfs.Handle, error) {
	if project == "" {
		return nil, fmt.Errorf("acquire root: %w", vfs.ErrUserCancelled)
	}
	if err := vfs.ValidateName(project); err != nil {
		return nil, err
	}
	h := &handle{project: project, kind: vfs.KindDirectory}
	if _, err := b.stat(ctx, h); err != nil {
		return nil, err
	}
	if b.state(mode) == vfs.PermissionDenied {
		return nil, fmt.Errorf("project %s (%s): %w", project, mode, vfs.ErrPermissionDenied)
	}
	return h, nil
}

// QueryPermission grants read always and readwrite unless configured read-only.
// The server may still refuse a write with 403.
func (b *Backend) QueryPermission(ctx context.Context, h vfs.Handle, mode vfs.Mode) (vfs.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := unwrap(h); err != nil {
		return "", err
	}
	return b.state(mode), nil
}

// RequestPermission never prompts
func (b *Backend) RequestPermission(ctx context.Context, h vfs.Handle, mode vfs.Mode) (vfs.PermissionState, error) {
	return b.QueryPermission(ctx, h, mode)
}

// GetDirectoryHandle resolves or creates a child directory
func (b *Backend) GetDirectoryHandle(ctx context.Context, dir vfs.Handle, name string, create bool) (vfs.Handle, error) {
	parent, err := childOf(dir, name)
	if err != nil {
		return nil, err
	}
	h := parent.child(name, vfs.KindDirectory)

	if create {
		if err := b.writable("create", name); err != nil {
			return nil, err
		}
		_, err := b.client.do(ctx, http.MethodPost, "/dir", func(r *resty.Request) {
			r.SetQueryParams(map[string]string{
				"project":               h.project,
				"dirname":               h.rel,
				fileserver.ParentsParam: "false",
			})
		})
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	if _, err := b.stat(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// GetFileHandle resolves or creates a child file. Creating writes an empty
// file only when nothing exists under the name.
func (b *Backend) GetFileHandle(ctx context.Context, dir vfs.Handle, name string, create bool) (vfs.Handle, error) {
	parent, err := childOf(dir, name)
	if err != nil {
		return nil, err
	}
	h := parent.child(name, vfs.KindFile)

	_, err = b.stat(ctx, h)
	switch {
	case err == nil:
		return h, nil
	case !create || !errors.Is(err, vfs.ErrNotFound):
		return nil, err
	}
	if err := b.writable("create", name); err != nil {
		return nil, err
	}
	if err := b.write(ctx, h, nil); err != nil {
		return nil, err
	}
	return h, nil
}

// RemoveEntry deletes a child. Non-empty directories need recursive.
func (b *Backend) RemoveEntry(ctx context.Context, dir vfs.Handle, name string, recursive bool) error {
	parent, err := childOf(dir, name)
	if err != nil {
		return err
	}
	if err := b.writable("remove", name); err != nil {
		return err
	}
	_, err = b.client.do(ctx, http.MethodDelete, "/file", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{
			"project":   parent.project,
			"filename":  path.Join(parent.rel, name),
			"recursive": strconv.FormatBool(recursive),
		})
	})
	return err
}

// ListChildren lists dir on the server
func (b *Backend) ListChildren(ctx context.Context, dir vfs.Handle) ([]vfs.Entry, error) {
	h, err := unwrap(dir)
	if err != nil {
		return nil, err
	}
	if h.kind != vfs.KindDirectory {
		return nil, fmt.Errorf("%s is a file: %w", h.Name(), vfs.ErrNameConflict)
	}

	var infos []fileserver.FileInfo
	_, err = b.client.do(ctx, http.MethodGet, "/files", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{"project": h.project, "dir": h.rel})
		r.SetResult(&infos)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]vfs.Entry, 0, len(infos))
	for _, info := range infos {
		if vfs.ValidateName(info.Name) != nil {
			continue
		}
		kind := vfs.KindFile
		if info.IsDirectory {
			kind = vfs.KindDirectory
		}
		entries = append(entries, vfs.Entry{Name: info.Name, Kind: kind, Handle: h.child(info.Name, kind)})
	}
	return entries, nil
}

// ReadBytes downloads the file
func (b *Backend) ReadBytes(ctx context.Context, file vfs.Handle) ([]byte, error) {
	h, err := unwrap(file)
	if err != nil {
		return nil, err
	}
	if h.kind != vfs.KindFile {
		return nil, fmt.Errorf("%s is a directory: %w", h.Name(), vfs.ErrNameConflict)
	}
	resp, err := b.client.do(ctx, http.MethodGet, "/file", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{"project": h.project, "filename": h.rel})
	})
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// WriteBytes uploads data as base64 so binary content survives the JSON body
func (b *Backend) WriteBytes(ctx context.Context, file vfs.Handle, data []byte) error {
	h, err := unwrap(file)
	if err != nil {
		return err
	}
	if h.kind != vfs.KindFile {
		return fmt.Errorf("%s is a directory: %w", h.Name(), vfs.ErrNameConflict)
	}
	if err := b.writable("write", h.Name()); err != nil {
		return err
	}
	if _, err := b.stat(ctx, h); err != nil {
		return err
	}
	return b.write(ctx, h, data)
}

func (b *Backend) write(ctx context.Context, h *handle, data []byte) error {
	content := base64.StdEncoding.EncodeToString(data)
	_, err := b.client.do(ctx, http.MethodPost, "/file", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{
			"project":               h.project,
			"filename":              h.rel,
			fileserver.ParentsParam: "false",
		})
		r.SetBody(fileserver.WriteRequest{Content: &content, Encoding: fileserver.EncodingBase64})
	})
	return err
}

// stat checks that h exists on the server with its recorded kind
func (b *Backend) stat(ctx context.Context, h *handle) (*fileserver.FileInfo, error) {
	var info fileserver.FileInfo
	_, err := b.client.do(ctx, http.MethodGet, "/stat", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{"project": h.project, "path": h.rel})
		r.SetResult(&info)
	})
	if err != nil {
		return nil, err
	}
	if info.IsDirectory != (h.kind == vfs.KindDirectory) {
		actual := vfs.KindFile
		if info.IsDirectory {
			actual = vfs.KindDirectory
		}
		return nil, fmt.Errorf("%s is a %s: %w", h.Name(), actual, vfs.ErrNameConflict)
	}
	return &info, nil
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

func childOf(dir vfs.Handle, name string) (*handle, error) {
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
	return h, nil
}

func unwrap(h vfs.Handle) (*handle, error) {
	rh, ok := h.(*handle)
	if !ok || rh == nil {
		return nil, fmt.Errorf("foreign handle %T: %w", h, vfs.ErrUnsupported)
	}
	return rh, nil
}
