// Package clipboard holds at most one pending copy or cut.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Operation is the pending action
type Operation string

const (
	OpCopy Operation = "copy"
	OpCut  Operation = "cut"
)

// State of the clipboard
type State string

const (
	StateEmpty   State = "empty"
	StateHolding State = "holding"
)

// Entry is the clipboard content. The parent directory of the source is
// deliberately not recorded.
type Entry struct {
	Handle    vfs.Handle `json:"-"`
	Name      string     `json:"name"`
	Operation Operation  `json:"operation"`
	IsFolder  bool       `json:"is_folder"`
}

// Controller is the clipboard state machine
type Controller struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewController returns an empty clipboard
func NewController() *Controller {
	return &Controller{}
}

// Copy replaces the content with a copy of e
func (c *Controller) Copy(e vfs.Entry) error {
	return c.set(e, OpCopy)
}

// Cut replaces the content with a cut of e
func (c *Controller) Cut(e vfs.Entry) error {
	return c.set(e, OpCut)
}

func (c *Controller) set(e vfs.Entry, op Operation) error {
	if e.Handle == nil {
		return fmt.Errorf("clipboard %s %s: %w", op, e.Name, vfs.ErrNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &Entry{
		Handle:    e.Handle,
		Name:      e.Name,
		Operation: op,
		IsFolder:  e.IsDir(),
	}
	return nil
}

// Clear empties the clipboard
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// Peek returns the entry if one is held
func (c *Controller) Peek() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}

// State reports empty or holding
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return StateEmpty
	}
	return StateHolding
}
