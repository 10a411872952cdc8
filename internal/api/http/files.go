package http

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/export"
	"github.com/GriffinCanCode/modide/internal/domain/filetype"
	"github.com/GriffinCanCode/modide/internal/domain/mutation"
)

// OpenedFileResponse is a file opened for the editor. Valid UTF-8 text is
// sent as is, everything else base64 encoded.
type OpenedFileResponse struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Info     filetype.Info `json:"info"`
	Size     int           `json:"size"`
	Content  string        `json:"content"`
	Encoding string        `json:"encoding"`
}

// ToggleRequest expands or collapses a tree row
type ToggleRequest struct {
	Path string `json:"path" binding:"required"`
}

// UploadFile stores the raw request body as a file in the viewed directory
func (h *Handlers) UploadFile(c *gin.Context) {
	data, ok := h.readBody(c)
	if !ok {
		return
	}
	overwrite := c.Query("overwrite") == "true"
	res, err := current(c).Upload(c.Request.Context(), c.Param("name"), data, overwrite)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusCreated
	if res.Skipped || res.Overwritten {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// UploadFolder stores a multipart folder upload. Every "files" part is
// matched by position with a "paths" value holding its relative path; a
// missing path falls back to the part's file name.
func (h *Handlers) UploadFolder(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	form, err := c.MultipartForm()
	if err != nil {
		h.bodyError(c, err)
		return
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		badRequest(c, "no files in upload")
		return
	}
	paths := form.Value["paths"]

	files := make([]mutation.UploadFile, 0, len(parts))
	for i, part := range parts {
		rel := part.Filename
		if i < len(paths) && paths[i] != "" {
			rel = paths[i]
		}
		data, err := readPart(part)
		if err != nil {
			badRequest(c, fmt.Sprintf("read %s: %v", rel, err))
			return
		}
		files = append(files, mutation.UploadFile{RelativePath: rel, Data: data})
	}

	res, err := current(c).UploadFolder(c.Request.Context(), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// OpenFile reads a file below the viewed directory and classifies it.
// raw=true answers with the bytes themselves.
func (h *Handlers) OpenFile(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	f, err := current(c).Open(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("raw") == "true" {
		c.Data(http.StatusOK, f.Info.MIME, f.Data)
		return
	}

	resp := OpenedFileResponse{Name: f.Name, Path: f.Path, Info: f.Info, Size: len(f.Data)}
	if f.Info.Category == filetype.CategoryText && utf8.Valid(f.Data) {
		resp.Content = string(f.Data)
		resp.Encoding = "utf-8"
	} else {
		resp.Content = base64.StdEncoding.EncodeToString(f.Data)
		resp.Encoding = "base64"
	}
	c.JSON(http.StatusOK, resp)
}

// SaveFile writes the raw request body to the open file
func (h *Handlers) SaveFile(c *gin.Context) {
	data, ok := h.readBody(c)
	if !ok {
		return
	}
	s := current(c)
	if err := s.Save(c.Request.Context(), data); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": s.State().OpenFile, "bytes": len(data)})
}

// Tree returns the visible rows of the project tree
func (h *Handlers) Tree(c *gin.Context) {
	rows, err := current(c).Tree(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// ToggleTree expands or collapses one directory row
func (h *Handlers) ToggleTree(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	expanded, err := current(c).Toggle(c.Request.Context(), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "expanded": expanded})
}

// Search matches a glob against every path of the project
func (h *Handlers) Search(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		badRequest(c, "pattern is required")
		return
	}
	res, err := current(c).Search(c.Request.Context(), pattern)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Export downloads the project as an archive. The archive is built in
// memory so a failure can still be reported with a proper status.
func (h *Handlers) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}

	s := current(c)
	var buf bytes.Buffer
	report, err := s.Export(c.Request.Context(), format, &buf)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !report.OK() {
		h.logger.Warn("export incomplete",
			zap.String("project", s.Project()),
			zap.Int("failures", len(report.Failures)))
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.Project(), format)))
	c.Header("X-Export-Failures", strconv.Itoa(len(report.Failures)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// readBody reads the whole request body up to maxUpload
func (h *Handlers) readBody(c *gin.Context) ([]byte, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	data, err := io.ReadAll(body)
	if err != nil {
		h.bodyError(c, err)
		return nil, false
	}
	return data, true
}

func (h *Handlers) bodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit),
			"code":  codeTooLarge,
		})
		return
	}
	badRequest(c, "Invalid request: "+err.Error())
}
