package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/modide/internal/domain/clipboard"
	"github.com/GriffinCanCode/modide/internal/domain/mutation"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// OpenSessionRequest opens a project on a backend
type OpenSessionRequest struct {
	Backend string   `json:"backend" binding:"required"`
	Project string   `json:"project"`
	Mode    vfs.Mode `json:"mode"`
}

// NavigateRequest moves the view. Action is descend, up, jump or home.
type NavigateRequest struct {
	Action string `json:"action" binding:"required"`
	Name   string `json:"name"`
	Index  int    `json:"index"`
}

// ClipboardRequest copies or cuts a child of the viewed directory
type ClipboardRequest struct {
	Operation clipboard.Operation `json:"operation" binding:"required"`
	Name      string              `json:"name" binding:"required"`
}

// PasteRequest pastes the clipboard, optionally under another name
type PasteRequest struct {
	AlternateName string `json:"alternate_name"`
}

// RenameRequest renames a child of the viewed directory
type RenameRequest struct {
	Name    string `json:"name" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

// CreateRequest creates an empty file or directory
type CreateRequest struct {
	Name string   `json:"name" binding:"required"`
	Kind vfs.Kind `json:"kind"`
}

// ListBackends lists registered storage backends
func (h *Handlers) ListBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": h.sessions.Backends()})
}

// ListProjects lists projects of a backend
func (h *Handlers) ListProjects(c *gin.Context) {
	backend := c.DefaultQuery("backend", "memory")
	projects, err := h.sessions.Projects(c.Request.Context(), backend)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backend": backend, "projects": projects})
}

// CreateProject adds a project to a backend
func (h *Handlers) CreateProject(c *gin.Context) {
	var req struct {
		Backend string `json:"backend" binding:"required"`
		Name    string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := h.sessions.CreateProject(c.Request.Context(), req.Backend, req.Name); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"backend": req.Backend, "name": req.Name})
}

// OpenSession acquires a project root and starts a session
func (h *Handlers) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = vfs.ModeReadWrite
	}
	s, err := h.sessions.Open(c.Request.Context(), req.Backend, req.Project, req.Mode)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sessionsChanged()
	c.JSON(http.StatusCreated, s.State())
}

// GetSession returns path, clipboard and busy state
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).State())
}

// CloseSession returns the session home and forgets it
func (h *Handlers) CloseSession(c *gin.Context) {
	s := current(c)
	if err := h.sessions.Close(s.ID()); err != nil {
		h.fail(c, err)
		return
	}
	h.sessionsChanged()
	c.Status(http.StatusNoContent)
}

// ListEntries lists the viewed directory, directories first.
// A vanished directory resets the path to the root first.
func (h *Handlers) ListEntries(c *gin.Context) {
	s := current(c)
	entries, err := s.Entries(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":    s.State().Path,
		"entries": entries,
	})
}

// Navigate descends, ascends, jumps along the breadcrumb or returns home
func (h *Handlers) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	s := current(c)
	ctx := c.Request.Context()
	var err error
	switch req.Action {
	case "descend":
		err = s.Descend(ctx, req.Name)
	case "up":
		err = s.Up(ctx)
	case "jump":
		err = s.Jump(ctx, req.Index)
	case "home":
		err = s.Home()
	default:
		badRequest(c, "unknown action "+req.Action)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// SetClipboard puts an entry on the clipboard
func (h *Handlers) SetClipboard(c *gin.Context) {
	var req ClipboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	s := current(c)
	var err error
	switch req.Operation {
	case clipboard.OpCopy:
		err = s.Copy(c.Request.Context(), req.Name)
	case clipboard.OpCut:
		err = s.Cut(c.Request.Context(), req.Name)
	default:
		badRequest(c, "unknown operation "+string(req.Operation))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// ClearClipboard empties the clipboard
func (h *Handlers) ClearClipboard(c *gin.Context) {
	current(c).ClearClipboard()
	c.Status(http.StatusNoContent)
}

// Paste copies the clipboard into the viewed directory. A taken name is
// answered with 409 and a suggestion; the client retries with alternate_name.
func (h *Handlers) Paste(c *gin.Context) {
	var req PasteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	res, err := current(c).Paste(c.Request.Context(), req.AlternateName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Rename renames an entry by copy and delete
func (h *Handlers) Rename(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	report, err := current(c).Rename(c.Request.Context(), req.Name, req.NewName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": req.NewName, "report": report})
}

// CreateEntry creates an empty file or directory
func (h *Handlers) CreateEntry(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if req.Kind == "" {
		req.Kind = vfs.KindFile
	}
	if req.Kind != vfs.KindFile && req.Kind != vfs.KindDirectory {
		badRequest(c, "unknown kind "+string(req.Kind))
		return
	}
	if err := current(c).Create(c.Request.Context(), req.Name, req.Kind); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name, "kind": req.Kind})
}

// DeleteEntry removes a child of the viewed directory. The client must pass
// confirm=true; folders additionally need recursive=true when not empty.
func (h *Handlers) DeleteEntry(c *gin.Context) {
	req := mutation.DeleteRequest{
		Name:      c.Param("name"),
		Recursive: c.Query("recursive") == "true",
		Confirmed: c.Query("confirm") == "true",
	}
	res, err := current(c).Delete(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
