package vfs

import "context"

// Kind distinguishes files from directories
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// IsDir reports whether the kind is a directory
func (k Kind) IsDir() bool {
	return k == KindDirectory
}

// Mode is the access mode a permission is queried for
type Mode string

const (
	ModeRead      Mode = "read"
	ModeReadWrite Mode = "readwrite"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeRead || m == ModeReadWrite
}

// PermissionState is the answer to a permission query
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// Handle is an opaque capability for one filesystem entry.
// Holding a Handle does not guarantee the entry still exists.
type Handle interface {
	Name() string
	Kind() Kind
}

// EntryComparer is implemented by handles that can tell whether another
// handle of the same backend refers to the same entry
type EntryComparer interface {
	IsSameEntry(other Handle) bool
}

// IsSameEntry reports whether a and b are known to refer to the same entry.
// Handles that do not implement EntryComparer never match.
func IsSameEntry(a, b Handle) bool {
	if a == nil || b == nil {
		return false
	}
	c, ok := a.(EntryComparer)
	return ok && c.IsSameEntry(b)
}

// Entry is one child of a directory listing
type Entry struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Handle Handle `json:"-"`
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Kind.IsDir()
}

// Backend is the capability-handle contract consumed by the navigator.
type Backend interface {
	// AcquireRoot opens the named project as the capability root.
	// An empty project means nothing was picked and fails with ErrUserCancelled.
	AcquireRoot(ctx context.Context, project string, mode Mode) (Handle, error)

	QueryPermission(ctx context.Context, h Handle, mode Mode) (PermissionState, error)
	RequestPermission(ctx context.Context, h Handle, mode Mode) (PermissionState, error)

	// GetDirectoryHandle resolves (or with create, makes) a child directory.
	// Fails with ErrNotFound, or ErrNameConflict when the name is a file.
	GetDirectoryHandle(ctx context.Context, dir Handle, name string, create bool) (Handle, error)

	// GetFileHandle resolves (or with create, makes) a child file.
	// Fails with ErrNotFound, or ErrNameConflict when the name is a directory.
	GetFileHandle(ctx context.Context, dir Handle, name string, create bool) (Handle, error)

	// RemoveEntry deletes a child by name. Non-empty directories need recursive.
	RemoveEntry(ctx context.Context, dir Handle, name string, recursive bool) error

	// ListChildren enumerates the immediate children in no particular order.
	ListChildren(ctx context.Context, dir Handle) ([]Entry, error)

	ReadBytes(ctx context.Context, file Handle) ([]byte, error)

	// WriteBytes replaces the file content as one create-write-close operation.
	WriteBytes(ctx context.Context, file Handle, data []byte) error

	// Type returns the backend identifier ("memory", "local", "remote").
	Type() string
}

// ProjectCatalog is implemented by backends that host several projects
type ProjectCatalog interface {
	ListProjects(ctx context.Context) ([]string, error)
	CreateProject(ctx context.Context, name string) error
}

// WalkFunc is called for every entry below the walked directory.
// rel is the '/'-separated path relative to the walk root.
type WalkFunc func(rel string, kind Kind) error

// Walker is implemented by backends with a fast native read-only walk.
// fn may be called from several goroutines.
type Walker interface {
	Walk(ctx context.Context, dir Handle, fn WalkFunc) error
}
