package vfs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ValidateName checks that name is a single usable path segment
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: NUL not allowed", ErrInvalidName)
	}
	return nil
}

// SplitPath splits a '/'-separated relative path into segments.
// Empty and "." segments are dropped; ".." is rejected with ErrPathTraversal.
func SplitPath(p string) ([]string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	var segs []string
	for _, s := range strings.Split(p, "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			return nil, fmt.Errorf("%w: %q", ErrPathTraversal, p)
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// JoinPath joins segments into the '/'-separated key used for paths
func JoinPath(segs ...string) string {
	return strings.Join(segs, "/")
}

// Resolve walks dir through each segment with GetDirectoryHandle
func Resolve(ctx context.Context, b Backend, dir Handle, segs []string) (Handle, error) {
	cur := dir
	for i, seg := range segs {
		next, err := b.GetDirectoryHandle(ctx, cur, seg, false)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", JoinPath(segs[:i+1]...), err)
		}
		cur = next
	}
	return cur, nil
}

// Stat reports whether dir has a child called name and its kind.
// It resolves without creating, trying directory then file.
func Stat(ctx context.Context, b Backend, dir Handle, name string) (Kind, bool, error) {
	_, err := b.GetDirectoryHandle(ctx, dir, name, false)
	switch {
	case err == nil:
		return KindDirectory, true, nil
	case errors.Is(err, ErrNameConflict):
		return KindFile, true, nil
	case !errors.Is(err, ErrNotFound):
		return "", false, err
	}

	_, err = b.GetFileHandle(ctx, dir, name, false)
	switch {
	case err == nil:
		return KindFile, true, nil
	case errors.Is(err, ErrNameConflict):
		return KindDirectory, true, nil
	case errors.Is(err, ErrNotFound):
		return "", false, nil
	default:
		return "", false, err
	}
}
