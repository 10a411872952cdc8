// Package tree renders the project as a lazily expanded tree.
//
// Expand state is kept per '/'-joined path, independent of the nodes, so it
// survives a reload of the parent listing. A renamed folder gets a new path
// and therefore renders collapsed.
package tree

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Resolver turns a path below the root into a directory handle
type Resolver interface {
	Resolve(ctx context.Context, segs []string) (vfs.Handle, error)
}

// Node is one entry of the tree. Children is nil until the directory was listed.
type Node struct {
	Name     string
	Kind     vfs.Kind
	Path     string
	Children []*Node

	stale bool
}

// Row is one visible line of the rendered tree
type Row struct {
	Depth    int      `json:"depth"`
	Name     string   `json:"name"`
	Kind     vfs.Kind `json:"kind"`
	Path     string   `json:"path"`
	Expanded bool     `json:"expanded"`
	Error    string   `json:"error,omitempty"`
}

// View holds expand state and cached listings
type View struct {
	lister   *listing.Lister
	resolver Resolver
	logger   *zap.Logger

	mu       sync.Mutex
	root     *Node
	nodes    map[string]*Node
	expanded map[string]bool
}

// NewView creates a collapsed tree
func NewView(lister *listing.Lister, resolver Resolver, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{lister: lister, resolver: resolver, logger: logger}
	v.Reset()
	return v
}

// Reset forgets every listing and expand state
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = &Node{Kind: vfs.KindDirectory}
	v.nodes = map[string]*Node{"": v.root}
	v.expanded = make(map[string]bool)
}

// IsExpanded reports the expand state of path
func (v *View) IsExpanded(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded[path]
}

// SetExpanded forces the expand state without loading
func (v *View) SetExpanded(path string, expanded bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if expanded {
		v.expanded[path] = true
	} else {
		delete(v.expanded, path)
	}
}

// Toggle flips the expand state of the directory at path and reports the new
// state. The first expansion lists the directory; a failed listing leaves it
// collapsed. Collapsing keeps the cached children.
func (v *View) Toggle(ctx context.Context, path string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.expanded[path] {
		delete(v.expanded, path)
		return false, nil
	}
	n := v.node(path)
	if n.Children == nil || n.stale {
		if err := v.load(ctx, n); err != nil {
			return false, err
		}
	}
	v.expanded[path] = true
	return true, nil
}

// Invalidate marks the listing of the directory at path stale.
// Only that directory is fetched again on the next Render.
func (v *View) Invalidate(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n, ok := v.nodes[path]; ok {
		n.stale = true
	}
}

// Forget drops the cached listings and expand state of path and everything
// below it. Used when the entry was removed or replaced, so a later entry
// with the same name starts unlisted.
func (v *View) Forget(path string) {
	if path == "" {
		v.Reset()
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prune(path)
	for p := range v.expanded {
		if within(p, path) {
			delete(v.expanded, p)
		}
	}
	if n, ok := v.nodes[parentOf(path)]; ok {
		n.stale = true
	}
}

// Render returns the visible rows depth-first. Load failures of expanded
// directories are logged and reported on the directory's row.
func (v *View) Render(ctx context.Context) ([]Row, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.root.Children == nil || v.root.stale {
		if err := v.load(ctx, v.root); err != nil {
			return nil, err
		}
	}

	var rows []Row
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		for _, c := range n.Children {
			row := Row{Depth: depth, Name: c.Name, Kind: c.Kind, Path: c.Path}
			if c.Kind.IsDir() && v.expanded[c.Path] {
				row.Expanded = true
				if c.Children == nil || c.stale {
					if err := v.load(ctx, c); err != nil {
						row.Error = err.Error()
					}
				}
			}
			rows = append(rows, row)
			if row.Expanded && row.Error == "" {
				visit(c, depth+1)
			}
		}
	}
	visit(v.root, 0)
	return rows, nil
}

// node returns the cached node for path, creating a placeholder directory
func (v *View) node(path string) *Node {
	if n, ok := v.nodes[path]; ok {
		return n
	}
	segs, _ := vfs.SplitPath(path)
	name := ""
	if len(segs) > 0 {
		name = segs[len(segs)-1]
	}
	n := &Node{Name: name, Kind: vfs.KindDirectory, Path: path}
	v.nodes[path] = n
	return n
}

// load lists n and replaces its children. Must be called with mu held.
func (v *View) load(ctx context.Context, n *Node) error {
	segs, err := vfs.SplitPath(n.Path)
	if err != nil {
		return err
	}
	h, err := v.resolver.Resolve(ctx, segs)
	if err == nil {
		var entries []vfs.Entry
		entries, err = v.lister.List(ctx, h)
		if err == nil {
			v.replaceChildren(n, entries)
			return nil
		}
	}

	v.logger.Warn("tree listing failed", zap.String("path", n.Path), zap.Error(err))
	return err
}

// replaceChildren swaps in a fresh listing. Cached nodes of entries that left
// the listing, or changed kind, are dropped with their whole subtree.
func (v *View) replaceChildren(n *Node, entries []vfs.Entry) {
	listed := make(map[string]vfs.Kind, len(entries))
	for _, e := range entries {
		listed[e.Name] = e.Kind
	}
	for _, old := range n.Children {
		if kind, ok := listed[old.Name]; !ok || kind != old.Kind {
			v.prune(old.Path)
		}
	}

	children := make([]*Node, 0, len(entries))
	for _, e := range entries {
		p := e.Name
		if n.Path != "" {
			p = n.Path + "/" + e.Name
		}
		child, ok := v.nodes[p]
		if !ok || child.Kind != e.Kind {
			v.prune(p)
			child = &Node{Name: e.Name, Kind: e.Kind, Path: p}
			if e.IsDir() {
				v.nodes[p] = child
			}
		}
		children = append(children, child)
	}
	n.Children = children
	n.stale = false
}

// prune removes the cached node at path and all nodes below it
func (v *View) prune(path string) {
	for p := range v.nodes {
		if p != "" && within(p, path) {
			delete(v.nodes, p)
		}
	}
}

func within(p, base string) bool {
	return p == base || strings.HasPrefix(p, base+"/")
}

func parentOf(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}
