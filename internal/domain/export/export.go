// Package export writes a project as a downloadable archive.
//
// The walk is read-only and goes through the permission gate for every
// directory. A directory or file that cannot be read is logged, recorded in
// the report and skipped; the archive is still produced.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/domain/transfer"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Exporter streams archives of a directory tree
type Exporter struct {
	backend vfs.Backend
	lister  *listing.Lister
	logger  *zap.Logger
	now     func() time.Time
}

// NewExporter creates an exporter
func NewExporter(backend vfs.Backend, lister *listing.Lister, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{backend: backend, lister: lister, logger: logger, now: time.Now}
}

type frame struct {
	h   vfs.Handle
	rel string
}

// Export writes the contents of root to w. The archive's top level is the
// contents of root, not root itself.
func (e *Exporter) Export(ctx context.Context, root vfs.Handle, format Format, w io.Writer) (*transfer.Report, error) {
	aw, err := newArchiveWriter(w, format, e.now())
	if err != nil {
		return nil, err
	}

	report := &transfer.Report{}
	if err := e.walk(ctx, root, aw, report); err != nil {
		if cerr := aw.Close(); cerr != nil {
			e.logger.Warn("closing archive after failed export",
				zap.String("root", root.Name()),
				zap.Error(cerr))
		}
		return report, err
	}
	if err := aw.Close(); err != nil {
		return report, fmt.Errorf("finish archive: %w", err)
	}

	e.logger.Info("exported project",
		zap.String("root", root.Name()),
		zap.String("format", string(format)),
		zap.Int("files", report.Files),
		zap.Int64("bytes", report.Bytes),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// walk returns an error only for a failing root listing, a cancelled context
// or a broken archive writer
func (e *Exporter) walk(ctx context.Context, root vfs.Handle, aw archiveWriter, report *transfer.Report) error {
	stack := []frame{{h: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := e.lister.List(ctx, f.h)
		if err != nil {
			if f.rel == "" {
				return err
			}
			e.fail(report, f.rel, err)
			continue
		}

		var dirs []frame
		for _, entry := range entries {
			rel := entry.Name
			if f.rel != "" {
				rel = f.rel + "/" + entry.Name
			}
			if entry.IsDir() {
				if err := aw.Dir(rel); err != nil {
					return fmt.Errorf("archive %s: %w", rel, err)
				}
				report.Directories++
				dirs = append(dirs, frame{h: entry.Handle, rel: rel})
				continue
			}

			data, err := e.backend.ReadBytes(ctx, entry.Handle)
			if err != nil {
				e.fail(report, rel, err)
				continue
			}
			if err := aw.File(rel, data); err != nil {
				return fmt.Errorf("archive %s: %w", rel, err)
			}
			report.Files++
			report.Bytes += int64(len(data))
		}
		// Pushed in reverse so directories are visited in listing order
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}
	return nil
}

func (e *Exporter) fail(report *transfer.Report, rel string, err error) {
	e.logger.Warn("export skipped entry", zap.String("path", rel), zap.Error(err))
	report.Fail(rel, err)
}
