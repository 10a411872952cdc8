// Package vfs defines the capability-handle contract every storage backend implements.
//
// A Handle is an opaque capability naming one entry (file or directory). There is no
// addressing by path string: callers walk from a root handle through
// GetDirectoryHandle, one segment at a time. The contract offers only create, read,
// write, list and remove primitives; rename and move are emulated above it.
//
// Backends:
//   - storage/memory: origin-private storage area kept in memory
//   - storage/local: a granted directory on disk
//   - storage/remote: the legacy network file server
//
// Errors:
//
// Backends wrap one of the sentinel errors below so callers can use errors.Is:
//   - ErrPermissionDenied, ErrNotFound, ErrNameConflict, ErrPathTraversal, ErrIO
//   - ErrUserCancelled, ErrNotEmpty, ErrInvalidName, ErrUnsupported
//
// Example Usage:
//
//	root, err := backend.AcquireRoot(ctx, "my-mod", vfs.ModeReadWrite)
//	units, err := backend.GetDirectoryHandle(ctx, root, "units", false)
//	entries, err := backend.ListChildren(ctx, units)
package vfs
