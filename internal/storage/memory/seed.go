package memory

import (
	"fmt"
	"path"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// MkdirAll creates the project (if needed) and every directory along p.
// It bypasses permission checks and is meant for seeding.
func (b *Backend) MkdirAll(project, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.mkdirAll(project, p)
	return err
}

// WriteFile creates parent directories and stores data at p, bypassing permission checks
func (b *Backend) WriteFile(project, p string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, name := path.Split(p)
	if err := vfs.ValidateName(name); err != nil {
		return err
	}
	parent, err := b.mkdirAll(project, dir)
	if err != nil {
		return err
	}
	if c, ok := parent.children[name]; ok {
		if c.kind != vfs.KindFile {
			return fmt.Errorf("%s is a directory: %w", p, vfs.ErrNameConflict)
		}
		c.data = append([]byte(nil), data...)
		return nil
	}
	parent.children[name] = &node{name: name, kind: vfs.KindFile, parent: parent, data: append([]byte(nil), data...)}
	return nil
}

func (b *Backend) mkdirAll(project, p string) (*node, error) {
	root, ok := b.projects[project]
	if !ok {
		if err := vfs.ValidateName(project); err != nil {
			return nil, err
		}
		root = newDir(project, nil)
		b.projects[project] = root
	}
	segs, err := vfs.SplitPath(p)
	if err != nil {
		return nil, err
	}
	cur := root
	for _, seg := range segs {
		c, ok := cur.children[seg]
		if !ok {
			c = newDir(seg, cur)
			cur.children[seg] = c
		} else if c.kind != vfs.KindDirectory {
			return nil, fmt.Errorf("%s is a file: %w", seg, vfs.ErrNameConflict)
		}
		cur = c
	}
	return cur, nil
}
