package session

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/GriffinCanCode/modide/internal/domain/export"
	"github.com/GriffinCanCode/modide/internal/domain/filetype"
	"github.com/GriffinCanCode/modide/internal/domain/mutation"
	"github.com/GriffinCanCode/modide/internal/domain/search"
	"github.com/GriffinCanCode/modide/internal/domain/transfer"
	"github.com/GriffinCanCode/modide/internal/domain/tree"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// DeleteResult describes a finished deletion
type DeleteResult struct {
	Kind vfs.Kind `json:"kind"`
	// ClosedOpenFile is set when the open file lived at or below the deleted entry
	ClosedOpenFile bool `json:"closed_open_file"`
}

// OpenedFile is a file read for the editor or viewer
type OpenedFile struct {
	Name string        `json:"name"`
	Path string        `json:"path"`
	Data []byte        `json:"-"`
	Info filetype.Info `json:"info"`
}

// Create makes an empty file or directory in the viewed directory
func (s *Session) Create(ctx context.Context, name string, kind vfs.Kind) (err error) {
	done, err := s.begin("create")
	if err != nil {
		return err
	}
	defer func() { done(err) }()

	if kind.IsDir() {
		_, err = s.ops.CreateDirectory(ctx, s.nav.Current(), name)
	} else {
		_, err = s.ops.CreateFile(ctx, s.nav.Current(), name)
	}
	if err != nil {
		return err
	}
	s.view.Invalidate(s.currentPath())
	return nil
}

// Delete removes a child of the viewed directory
func (s *Session) Delete(ctx context.Context, req mutation.DeleteRequest) (res *DeleteResult, err error) {
	done, err := s.begin("delete")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	kind, err := s.ops.Delete(ctx, s.nav.Current(), req)
	if err != nil {
		return nil, err
	}
	deleted := s.childPath(req.Name)
	s.view.Forget(deleted)
	s.view.Invalidate(s.currentPath())

	res = &DeleteResult{Kind: kind}
	s.mu.Lock()
	if open := vfs.JoinPath(s.openFile...); open != "" && within(open, deleted) {
		s.openFile = nil
		res.ClosedOpenFile = true
	}
	s.mu.Unlock()
	if res.ClosedOpenFile {
		s.notify("open_file_deleted", LevelWarning, deleted, "the open file was deleted")
	}
	return res, nil
}

// Upload stores one file in the viewed directory; an existing file is only
// replaced when overwrite is set
func (s *Session) Upload(ctx context.Context, name string, data []byte, overwrite bool) (res *mutation.UploadResult, err error) {
	done, err := s.begin("upload")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	confirm := mutation.ConfirmFunc(func(context.Context, string) (bool, error) {
		return overwrite, nil
	})
	res, err = s.ops.Upload(ctx, s.nav.Current(), name, data, confirm)
	if err != nil {
		return nil, err
	}
	if res.Skipped {
		s.notify("upload_skipped", LevelInfo, s.childPath(name), "%s exists and was not replaced", name)
		return res, nil
	}
	s.view.Invalidate(s.currentPath())
	return res, nil
}

// UploadFolder stores files by relative path and expands the uploaded top-level folders
func (s *Session) UploadFolder(ctx context.Context, files []mutation.UploadFile) (res *mutation.TreeResult, err error) {
	done, err := s.begin("upload_folder")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	res, err = s.ops.UploadTree(ctx, s.nav.Current(), files)
	if err != nil {
		return res, err
	}
	s.view.Invalidate(s.currentPath())
	for _, folder := range res.Folders {
		p := s.childPath(folder)
		s.view.Invalidate(p)
		s.view.SetExpanded(p, true)
	}
	s.recorder.RecordTransfer("upload", res.Report.Files, res.Report.Directories, len(res.Report.Failures), res.Report.Bytes)
	if !res.Report.OK() {
		s.notify("upload_incomplete", LevelWarning, s.currentPath(),
			"%d files could not be uploaded", len(res.Report.Failures))
	}
	return res, nil
}

// Open reads a file for viewing and remembers it as the open file.
// name may be a '/'-separated path below the viewed directory.
func (s *Session) Open(ctx context.Context, name string) (f *OpenedFile, err error) {
	done, err := s.begin("open")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	segs, err := vfs.SplitPath(name)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("open: %w", vfs.ErrInvalidName)
	}
	full := append(s.nav.Path(), segs...)
	data, err := s.readFile(ctx, full)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.openFile = full
	s.mu.Unlock()

	base := full[len(full)-1]
	return &OpenedFile{
		Name: base,
		Path: vfs.JoinPath(full...),
		Data: data,
		Info: filetype.Classify(base, data),
	}, nil
}

// Save writes data to the open file
func (s *Session) Save(ctx context.Context, data []byte) (err error) {
	done, err := s.begin("save")
	if err != nil {
		return err
	}
	defer func() { done(err) }()

	s.mu.Lock()
	full := append([]string(nil), s.openFile...)
	s.mu.Unlock()
	if len(full) == 0 {
		return ErrNoOpenFile
	}

	dir, err := s.nav.Resolve(ctx, full[:len(full)-1])
	if err != nil {
		return err
	}
	if err := s.ops.Save(ctx, dir, full[len(full)-1], data); err != nil {
		return err
	}
	s.view.Invalidate(vfs.JoinPath(full[:len(full)-1]...))
	s.notify("saved", LevelInfo, vfs.JoinPath(full...), "saved %s", full[len(full)-1])
	return nil
}

func (s *Session) readFile(ctx context.Context, full []string) ([]byte, error) {
	dir, err := s.nav.Resolve(ctx, full[:len(full)-1])
	if err != nil {
		return nil, err
	}
	h, err := s.backend.GetFileHandle(ctx, dir, full[len(full)-1], false)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Ensure(ctx, h, vfs.ModeRead); err != nil {
		return nil, err
	}
	return s.backend.ReadBytes(ctx, h)
}

// Tree renders the visible rows of the project tree
func (s *Session) Tree(ctx context.Context) (rows []tree.Row, err error) {
	done, err := s.begin("tree")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()
	return s.view.Render(ctx)
}

// Toggle expands or collapses the directory at path and returns the new state
func (s *Session) Toggle(ctx context.Context, path string) (expanded bool, err error) {
	done, err := s.begin("toggle")
	if err != nil {
		return false, err
	}
	defer func() { done(err) }()

	segs, err := vfs.SplitPath(path)
	if err != nil {
		return false, err
	}
	return s.view.Toggle(ctx, vfs.JoinPath(segs...))
}

// Search matches a glob against every path in the project
func (s *Session) Search(ctx context.Context, pattern string) (res *search.Result, err error) {
	done, err := s.begin("search")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()
	return s.searcher.Search(ctx, s.nav.Root(), pattern)
}

// Export writes the whole project to w
func (s *Session) Export(ctx context.Context, format export.Format, w io.Writer) (report *transfer.Report, err error) {
	done, err := s.begin("export")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	report, err = s.exporter.Export(ctx, s.nav.Root(), format, w)
	if report != nil {
		s.recorder.RecordTransfer("export", report.Files, report.Directories, len(report.Failures), report.Bytes)
	}
	if err == nil && !report.OK() {
		s.notify("export_incomplete", LevelWarning, "",
			"%d entries were left out of the archive", len(report.Failures))
	}
	return report, err
}

// Close returns home: clipboard cleared, tree forgotten, root released
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.clip.Clear()
	s.view.Reset()
	s.nav.Home()
	s.mu.Lock()
	s.openFile = nil
	s.mu.Unlock()
	s.notify("closed", LevelInfo, "", "returned home")
}

func (s *Session) retargetOpenFile(oldPath, newPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := vfs.JoinPath(s.openFile...)
	if open == "" || !within(open, oldPath) {
		return
	}
	segs, _ := vfs.SplitPath(newPath + strings.TrimPrefix(open, oldPath))
	s.openFile = segs
}

// within reports whether p is base or lies below it
func within(p, base string) bool {
	return p == base || strings.HasPrefix(p, base+"/")
}
