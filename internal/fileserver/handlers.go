package fileserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// ListProjects handles GET /api/projects
func (s *Server) ListProjects(c *gin.Context) {
	catalog, ok := s.backend.(vfs.ProjectCatalog)
	if !ok {
		s.fail(c, "Failed to list projects", vfs.ErrUnsupported)
		return
	}
	names, err := catalog.ListProjects(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to list projects", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

// CreateProject handles POST /api/projects
func (s *Server) CreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	catalog, ok := s.backend.(vfs.ProjectCatalog)
	if !ok {
		s.fail(c, "Failed to create project", vfs.ErrUnsupported)
		return
	}
	if err := catalog.CreateProject(c.Request.Context(), req.Name); err != nil {
		s.fail(c, fmt.Sprintf("Failed to create project '%s'", req.Name), err)
		return
	}
	s.logger.Info("project created", zap.String("project", req.Name))
	c.JSON(http.StatusCreated, MessageResponse{Message: fmt.Sprintf("Project '%s' created.", req.Name)})
}

// ListFiles handles GET /api/files?project=&dir=
func (s *Server) ListFiles(c *gin.Context) {
	project, ok := requireQuery(c, "project")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	dir, err := s.openDir(ctx, project, c.Query("dir"), vfs.ModeRead, false)
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to list files for project '%s'", project), err)
		return
	}
	entries, err := s.backend.ListChildren(ctx, dir)
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to list files for project '%s'", project), err)
		return
	}
	listing.Sort(entries)

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, FileInfo{Name: e.Name, IsDirectory: e.IsDir()})
	}
	c.JSON(http.StatusOK, out)
}

// Stat handles GET /api/stat?project=&path=
func (s *Server) Stat(c *gin.Context) {
	project, ok := requireQuery(c, "project")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	segs, err := vfs.SplitPath(c.Query("path"))
	if err != nil {
		s.fail(c, "Invalid path", err)
		return
	}
	root, err := s.backend.AcquireRoot(ctx, project, vfs.ModeRead)
	if err != nil {
		s.fail(c, fmt.Sprintf("Project '%s' not available", project), err)
		return
	}
	if len(segs) == 0 {
		c.JSON(http.StatusOK, FileInfo{Name: project, IsDirectory: true})
		return
	}

	parent, err := vfs.Resolve(ctx, s.backend, root, segs[:len(segs)-1])
	if err != nil {
		s.fail(c, "Failed to stat", err)
		return
	}
	name := segs[len(segs)-1]
	kind, found, err := vfs.Stat(ctx, s.backend, parent, name)
	if err != nil {
		s.fail(c, "Failed to stat", err)
		return
	}
	if !found {
		s.fail(c, "Failed to stat", fmt.Errorf("%s: %w", vfs.JoinPath(segs...), vfs.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, FileInfo{Name: name, IsDirectory: kind.IsDir()})
}

// ReadFile handles GET /api/file?project=&filename=
func (s *Server) ReadFile(c *gin.Context) {
	project, filename, ok := requireFile(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	parent, name, err := s.openParent(ctx, project, filename, vfs.ModeRead, false)
	if err != nil {
		s.fail(c, fmt.Sprintf("File '%s' not available in project '%s'", filename, project), err)
		return
	}
	fh, err := s.backend.GetFileHandle(ctx, parent, name, false)
	if err != nil {
		s.fail(c, fmt.Sprintf("File '%s' not found in project '%s'", filename, project), err)
		return
	}
	data, err := s.backend.ReadBytes(ctx, fh)
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to read file '%s'", filename), err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// WriteFile handles POST /api/file?project=&filename=&parents=.
// Missing parent directories are created, and so is the project when the
// backend hosts several, unless parents=false.
func (s *Server) WriteFile(c *gin.Context) {
	project, filename, ok := requireFile(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)

	var req WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, MessageResponse{Message: "Request body too large", Code: "too_large"})
			return
		}
		badRequest(c, "Invalid request body")
		return
	}
	if req.Content == nil {
		badRequest(c, "Content field in request body is required")
		return
	}
	data, err := decodeContent(*req.Content, req.Encoding)
	if err != nil {
		badRequest(c, "Invalid content: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	parent, name, err := s.openParent(ctx, project, filename, vfs.ModeReadWrite, createParents(c))
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to save file '%s'", filename), err)
		return
	}
	fh, err := s.backend.GetFileHandle(ctx, parent, name, true)
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to save file '%s'", filename), err)
		return
	}
	if err := s.backend.WriteBytes(ctx, fh, data); err != nil {
		s.fail(c, fmt.Sprintf("Failed to save file '%s'", filename), err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("File '%s' saved successfully in project '%s'.", filename, project),
	})
}

// DeleteFile handles DELETE /api/file?project=&filename=&recursive=
func (s *Server) DeleteFile(c *gin.Context) {
	project, filename, ok := requireFile(c)
	if !ok {
		return
	}
	recursive, _ := strconv.ParseBool(c.Query("recursive"))
	ctx := c.Request.Context()

	parent, name, err := s.openParent(ctx, project, filename, vfs.ModeReadWrite, false)
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to delete '%s'", filename), err)
		return
	}
	if err := s.backend.RemoveEntry(ctx, parent, name, recursive); err != nil {
		s.fail(c, fmt.Sprintf("Failed to delete '%s'", filename), err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("'%s' deleted from project '%s'.", filename, project),
	})
}

// MakeDir handles POST /api/dir?project=&dirname=&parents=, creating every
// missing level. With parents=false only the last level is created.
func (s *Server) MakeDir(c *gin.Context) {
	project, ok := requireQuery(c, "project")
	if !ok {
		return
	}
	dirname, ok := requireQuery(c, "dirname")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var err error
	if createParents(c) {
		_, err = s.openDir(ctx, project, dirname, vfs.ModeReadWrite, true)
	} else {
		var parent vfs.Handle
		var name string
		if parent, name, err = s.openParent(ctx, project, dirname, vfs.ModeReadWrite, false); err == nil {
			_, err = s.backend.GetDirectoryHandle(ctx, parent, name, true)
		}
	}
	if err != nil {
		s.fail(c, fmt.Sprintf("Failed to create directory '%s'", dirname), err)
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("Directory '%s' created in project '%s'.", dirname, project),
	})
}

func createParents(c *gin.Context) bool {
	return c.Query(ParentsParam) != "false"
}

// openDir resolves p below the project root, creating levels when create is set
func (s *Server) openDir(ctx context.Context, project, p string, mode vfs.Mode, create bool) (vfs.Handle, error) {
	segs, err := vfs.SplitPath(p)
	if err != nil {
		return nil, err
	}
	root, err := s.root(ctx, project, mode, create)
	if err != nil {
		return nil, err
	}
	if !create {
		return vfs.Resolve(ctx, s.backend, root, segs)
	}
	cur := root
	for _, seg := range segs {
		if cur, err = s.backend.GetDirectoryHandle(ctx, cur, seg, true); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// openParent splits a file path and resolves its parent directory
func (s *Server) openParent(ctx context.Context, project, p string, mode vfs.Mode, create bool) (vfs.Handle, string, error) {
	segs, err := vfs.SplitPath(p)
	if err != nil {
		return nil, "", err
	}
	if len(segs) == 0 {
		return nil, "", fmt.Errorf("%w: empty filename", vfs.ErrInvalidName)
	}
	parent, err := s.openDir(ctx, project, vfs.JoinPath(segs[:len(segs)-1]...), mode, create)
	if err != nil {
		return nil, "", err
	}
	return parent, segs[len(segs)-1], nil
}

func (s *Server) root(ctx context.Context, project string, mode vfs.Mode, create bool) (vfs.Handle, error) {
	root, err := s.backend.AcquireRoot(ctx, project, mode)
	if err == nil || !create || !errors.Is(err, vfs.ErrNotFound) {
		return root, err
	}
	catalog, ok := s.backend.(vfs.ProjectCatalog)
	if !ok {
		return nil, err
	}
	if err := catalog.CreateProject(ctx, project); err != nil && !errors.Is(err, vfs.ErrNameConflict) {
		return nil, err
	}
	s.logger.Info("project created on first write", zap.String("project", project))
	return s.backend.AcquireRoot(ctx, project, mode)
}

func decodeContent(content, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingUTF8:
		return []byte(content), nil
	case EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func requireQuery(c *gin.Context, key string) (string, bool) {
	v := c.Query(key)
	if v == "" {
		badRequest(c, fmt.Sprintf("%s query parameter is required", key))
		return "", false
	}
	return v, true
}

func requireFile(c *gin.Context) (string, string, bool) {
	project, filename := c.Query("project"), c.Query("filename")
	if project == "" || filename == "" {
		badRequest(c, "Project and filename query parameters are required")
		return "", "", false
	}
	return project, filename, true
}
