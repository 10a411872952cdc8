package local

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

func writeFile(t *testing.T, base, rel, content string) {
	t.Helper()
	p := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func setup(t *testing.T, opts ...Option) (*Backend, vfs.Handle, string) {
	t.Helper()
	base := t.TempDir()
	writeFile(t, base, "mod/units/tank.ini", "[core]")
	writeFile(t, base, "mod/mod-info.txt", "title")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "other"), 0o755))

	b, err := New(base, opts...)
	require.NoError(t, err)
	root, err := b.AcquireRoot(context.Background(), "mod", vfs.ModeRead)
	require.NoError(t, err)
	return b, root, base
}

func TestProjects(t *testing.T) {
	b, _, base := setup(t)
	ctx := context.Background()

	names, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mod", "other"}, names)

	require.NoError(t, b.CreateProject(ctx, "fresh"))
	assert.DirExists(t, filepath.Join(base, "fresh"))

	assert.ErrorIs(t, b.CreateProject(ctx, "fresh"), vfs.ErrNameConflict)
	assert.ErrorIs(t, b.CreateProject(ctx, "../escape"), vfs.ErrInvalidName)
}

func TestAcquireRoot(t *testing.T) {
	b, _, _ := setup(t)
	ctx := context.Background()

	_, err := b.AcquireRoot(ctx, "", vfs.ModeRead)
	assert.ErrorIs(t, err, vfs.ErrUserCancelled)

	_, err = b.AcquireRoot(ctx, "missing", vfs.ModeRead)
	assert.ErrorIs(t, err, vfs.ErrNotFound)

	_, err = b.AcquireRoot(ctx, "..", vfs.ModeRead)
	assert.ErrorIs(t, err, vfs.ErrInvalidName)
}

func TestHandlesAndListing(t *testing.T) {
	b, root, _ := setup(t)
	ctx := context.Background()

	entries, err := b.ListChildren(ctx, root)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"mod-info.txt", "units"}, names)

	units, err := b.GetDirectoryHandle(ctx, root, "units", false)
	require.NoError(t, err)
	assert.Equal(t, "units", units.Name())

	_, err = b.GetDirectoryHandle(ctx, root, "mod-info.txt", false)
	assert.ErrorIs(t, err, vfs.ErrNameConflict)

	_, err = b.GetFileHandle(ctx, root, "units", false)
	assert.ErrorIs(t, err, vfs.ErrNameConflict)

	_, err = b.GetFileHandle(ctx, root, "nope", false)
	assert.ErrorIs(t, err, vfs.ErrNotFound)

	_, err = b.GetFileHandle(ctx, units, "../../other", false)
	assert.ErrorIs(t, err, vfs.ErrInvalidName)
}

func TestSymlinksHidden(t *testing.T) {
	b, root, base := setup(t)
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(base, "mod", "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	ctx := context.Background()

	entries, err := b.ListChildren(ctx, root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "link", e.Name)
	}

	_, err = b.GetDirectoryHandle(ctx, root, "link", false)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestReadWrite(t *testing.T) {
	b, root, base := setup(t)
	ctx := context.Background()

	f, err := b.GetFileHandle(ctx, root, "new.lua", true)
	require.NoError(t, err)
	require.NoError(t, b.WriteBytes(ctx, f, []byte("print(1)")))

	data, err := b.ReadBytes(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(data))

	onDisk, err := os.ReadFile(filepath.Join(base, "mod", "new.lua"))
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(onDisk))

	again, err := b.GetFileHandle(ctx, root, "new.lua", true)
	require.NoError(t, err)
	data, err = b.ReadBytes(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(data), "create on an existing file keeps content")
}

func TestRemoveEntry(t *testing.T) {
	b, root, base := setup(t)
	ctx := context.Background()

	units, err := b.GetDirectoryHandle(ctx, root, "units", false)
	require.NoError(t, err)

	assert.ErrorIs(t, b.RemoveEntry(ctx, root, "units", false), vfs.ErrNotEmpty)
	assert.DirExists(t, filepath.Join(base, "mod", "units"))

	require.NoError(t, b.RemoveEntry(ctx, root, "units", true))
	assert.NoDirExists(t, filepath.Join(base, "mod", "units"))

	_, err = b.ListChildren(ctx, units)
	assert.ErrorIs(t, err, vfs.ErrNotFound, "handles go stale after removal")

	assert.ErrorIs(t, b.RemoveEntry(ctx, root, "units", true), vfs.ErrNotFound)
}

func TestReadOnly(t *testing.T) {
	b, root, _ := setup(t, WithReadOnly())
	ctx := context.Background()

	state, err := b.QueryPermission(ctx, root, vfs.ModeReadWrite)
	require.NoError(t, err)
	assert.Equal(t, vfs.PermissionDenied, state)

	state, err = b.RequestPermission(ctx, root, vfs.ModeRead)
	require.NoError(t, err)
	assert.Equal(t, vfs.PermissionGranted, state)

	_, err = b.AcquireRoot(ctx, "mod", vfs.ModeReadWrite)
	assert.ErrorIs(t, err, vfs.ErrPermissionDenied)

	_, err = b.GetFileHandle(ctx, root, "x.txt", true)
	assert.ErrorIs(t, err, vfs.ErrPermissionDenied)
	assert.ErrorIs(t, b.RemoveEntry(ctx, root, "mod-info.txt", false), vfs.ErrPermissionDenied)
	assert.ErrorIs(t, b.CreateProject(ctx, "fresh"), vfs.ErrPermissionDenied)
}

func TestWalk(t *testing.T) {
	b, root, _ := setup(t)
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen = map[string]vfs.Kind{}
	)
	err := b.Walk(ctx, root, func(rel string, kind vfs.Kind) error {
		mu.Lock()
		seen[rel] = kind
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]vfs.Kind{
		"units":          vfs.KindDirectory,
		"units/tank.ini": vfs.KindFile,
		"mod-info.txt":   vfs.KindFile,
	}, seen)
}

func TestWalkCancelled(t *testing.T) {
	b, root, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Walk(ctx, root, func(string, vfs.Kind) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForeignHandle(t *testing.T) {
	b, _, _ := setup(t)
	_, err := b.ListChildren(context.Background(), fakeHandle{})
	assert.ErrorIs(t, err, vfs.ErrUnsupported)
}

type fakeHandle struct{}

func (fakeHandle) Name() string   { return "fake" }
func (fakeHandle) Kind() vfs.Kind { return vfs.KindDirectory }
