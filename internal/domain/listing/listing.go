// Package listing enumerates and orders the entries of one directory.
package listing

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Lister produces sorted directory listings
type Lister struct {
	backend vfs.Backend
	gate    *permission.Gate
	logger  *zap.Logger
}

// NewLister creates a lister
func NewLister(backend vfs.Backend, gate *permission.Gate, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{backend: backend, gate: gate, logger: logger}
}

// List returns every child of dir, directories first, each group in
// case-insensitive collation order
func (l *Lister) List(ctx context.Context, dir vfs.Handle) ([]vfs.Entry, error) {
	if err := l.gate.Ensure(ctx, dir, vfs.ModeRead); err != nil {
		return nil, err
	}
	entries, err := l.backend.ListChildren(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir.Name(), err)
	}
	Sort(entries)

	l.logger.Debug("listed directory",
		zap.String("dir", dir.Name()),
		zap.Int("entries", len(entries)))
	return entries, nil
}

// Lookup finds the child called name in the listing of dir
func (l *Lister) Lookup(ctx context.Context, dir vfs.Handle, name string) (vfs.Entry, error) {
	entries, err := l.List(ctx, dir)
	if err != nil {
		return vfs.Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return vfs.Entry{}, fmt.Errorf("%s in %s: %w", name, dir.Name(), vfs.ErrNotFound)
}

// Sort orders entries in place: directories before files, then names by
// locale collation ignoring case, then by bytes so the order is total.
func Sort(entries []vfs.Entry) {
	// Collators keep internal buffers and are not safe to share
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		if r := c.CompareString(a.Name, b.Name); r != 0 {
			return r < 0
		}
		return a.Name < b.Name
	})
}

// Gate returns the permission gate used by the lister
func (l *Lister) Gate() *permission.Gate {
	return l.gate
}
