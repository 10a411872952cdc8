package local

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/charlievieth/fastwalk"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Walk visits every file and directory below dir using fastwalk.
// fn runs on several goroutines. Unreadable sub-directories are skipped.
func (b *Backend) Walk(ctx context.Context, dir vfs.Handle, fn vfs.WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := unwrap(dir)
	if err != nil {
		return err
	}
	if _, err := b.stat(h); err != nil {
		return err
	}

	root := b.abs(h)
	conf := fastwalk.Config{Follow: false}

	err = fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if d != nil && d.IsDir() && p != root {
				return fastwalk.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		kind, ok := kindOf(d.Type())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		return fn(filepath.ToSlash(rel), kind)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return mapErr("walk", h.Name(), err)
		}
		return err
	}
	return nil
}
