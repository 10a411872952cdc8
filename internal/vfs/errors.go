package vfs

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrNameConflict     = errors.New("name conflict")
	ErrPathTraversal    = errors.New("path traversal rejected")
	ErrIO               = errors.New("i/o failure")
	ErrUserCancelled    = errors.New("cancelled by user")
	ErrNotEmpty         = errors.New("directory not empty")
	ErrInvalidName      = errors.New("invalid name")
	ErrUnsupported      = errors.New("operation not supported by backend")
)

// Code is the error taxonomy reported to clients
type Code string

const (
	CodePermissionDenied Code = "permission_denied"
	CodeNotFound         Code = "not_found"
	CodeNameConflict     Code = "name_conflict"
	CodePathTraversal    Code = "path_traversal"
	CodeIOFailure        Code = "io_failure"
	CodeCancelled        Code = "cancelled"
	CodeNotEmpty         Code = "not_empty"
	CodeInvalidName      Code = "invalid_name"
	CodeUnsupported      Code = "unsupported"
)

// Classify maps an error onto the taxonomy. Unknown errors are I/O failures.
func Classify(err error) Code {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNameConflict):
		return CodeNameConflict
	case errors.Is(err, ErrPathTraversal):
		return CodePathTraversal
	case errors.Is(err, ErrUserCancelled):
		return CodeCancelled
	case errors.Is(err, ErrNotEmpty):
		return CodeNotEmpty
	case errors.Is(err, ErrInvalidName):
		return CodeInvalidName
	case errors.Is(err, ErrUnsupported):
		return CodeUnsupported
	default:
		return CodeIOFailure
	}
}

// IOError wraps a storage-layer failure so it matches ErrIO
func IOError(op, name string, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, name, ErrIO, err)
}
