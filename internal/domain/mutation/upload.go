package mutation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/transfer"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// UploadFile is one file of a folder upload
type UploadFile struct {
	RelativePath string
	Data         []byte
}

// TreeResult summarizes a folder upload
type TreeResult struct {
	Report *transfer.Report `json:"report"`
	// Folders are the top-level directories created or filled, in upload order
	Folders []string `json:"folders"`
}

// UploadTree writes every file below dir, creating directories along the way.
// Empty, "." and ".." segments are dropped. Existing files are overwritten.
func (o *Ops) UploadTree(ctx context.Context, dir vfs.Handle, files []UploadFile) (*TreeResult, error) {
	if err := o.gate.Ensure(ctx, dir, vfs.ModeReadWrite); err != nil {
		return nil, err
	}

	result := &TreeResult{Report: &transfer.Report{}}
	dirs := map[string]vfs.Handle{"": dir}
	seen := map[string]bool{}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		segs := cleanSegments(f.RelativePath)
		if len(segs) == 0 {
			continue
		}

		parent, err := o.mkdirs(ctx, dirs, segs[:len(segs)-1], result.Report)
		if err != nil {
			o.logger.Warn("upload path failed", zap.String("path", f.RelativePath), zap.Error(err))
			result.Report.Fail(f.RelativePath, err)
			continue
		}
		name := segs[len(segs)-1]
		if err := vfs.ValidateName(name); err != nil {
			result.Report.Fail(f.RelativePath, err)
			continue
		}
		if err := o.write(ctx, parent, name, f.Data); err != nil {
			o.logger.Warn("upload file failed", zap.String("path", f.RelativePath), zap.Error(err))
			result.Report.Fail(f.RelativePath, err)
			continue
		}
		result.Report.Files++
		result.Report.Bytes += int64(len(f.Data))

		if len(segs) > 1 && !seen[segs[0]] {
			seen[segs[0]] = true
			result.Folders = append(result.Folders, segs[0])
		}
	}

	o.logger.Info("uploaded folder",
		zap.Int("files", result.Report.Files),
		zap.Int("failures", len(result.Report.Failures)))
	return result, nil
}

func (o *Ops) mkdirs(ctx context.Context, cache map[string]vfs.Handle, segs []string, report *transfer.Report) (vfs.Handle, error) {
	cur := cache[""]
	for i, seg := range segs {
		key := vfs.JoinPath(segs[:i+1]...)
		if h, ok := cache[key]; ok {
			cur = h
			continue
		}
		if err := vfs.ValidateName(seg); err != nil {
			return nil, err
		}
		_, existed, err := vfs.Stat(ctx, o.backend, cur, seg)
		if err != nil {
			return nil, err
		}
		h, err := o.backend.GetDirectoryHandle(ctx, cur, seg, true)
		if err != nil {
			return nil, fmt.Errorf("create directory %s: %w", key, err)
		}
		if !existed {
			report.Directories++
		}
		cache[key] = h
		cur = h
	}
	return cur, nil
}

func cleanSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(strings.ReplaceAll(p, `\`, "/"), "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		out = append(out, s)
	}
	return out
}
