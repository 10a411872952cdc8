package listing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/storage/memory"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

func names(entries []vfs.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestSort(t *testing.T) {
	entries := []vfs.Entry{
		{Name: "b.txt", Kind: vfs.KindFile},
		{Name: "A", Kind: vfs.KindDirectory},
		{Name: "a.txt", Kind: vfs.KindFile},
		{Name: "c", Kind: vfs.KindDirectory},
	}
	Sort(entries)
	assert.Equal(t, []string{"A", "c", "a.txt", "b.txt"}, names(entries))
}

func TestSortCaseInsensitive(t *testing.T) {
	entries := []vfs.Entry{
		{Name: "Zeta.ini", Kind: vfs.KindFile},
		{Name: "alpha.ini", Kind: vfs.KindFile},
		{Name: "Beta.ini", Kind: vfs.KindFile},
	}
	Sort(entries)
	assert.Equal(t, []string{"alpha.ini", "Beta.ini", "Zeta.ini"}, names(entries))
}

func TestSortDeterministicTies(t *testing.T) {
	first := []vfs.Entry{{Name: "readme", Kind: vfs.KindFile}, {Name: "README", Kind: vfs.KindFile}}
	second := []vfs.Entry{{Name: "README", Kind: vfs.KindFile}, {Name: "readme", Kind: vfs.KindFile}}
	Sort(first)
	Sort(second)
	assert.Equal(t, names(first), names(second))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	require.NoError(t, b.WriteFile("mod", "b.txt", nil))
	require.NoError(t, b.WriteFile("mod", "a.txt", nil))
	require.NoError(t, b.MkdirAll("mod", "c"))
	require.NoError(t, b.MkdirAll("mod", "A"))
	root, err := b.AcquireRoot(ctx, "mod", vfs.ModeRead)
	require.NoError(t, err)

	l := NewLister(b, permission.NewGate(b, nil), nil)
	entries, err := l.List(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "c", "a.txt", "b.txt"}, names(entries))

	e, err := l.Lookup(ctx, root, "c")
	require.NoError(t, err)
	assert.True(t, e.IsDir())

	_, err = l.Lookup(ctx, root, "zzz")
	assert.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestListDenied(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	require.NoError(t, b.MkdirAll("mod", "units"))
	root, err := b.AcquireRoot(ctx, "mod", vfs.ModeRead)
	require.NoError(t, err)
	b.SetPermission(vfs.ModeRead, vfs.PermissionDenied)

	l := NewLister(b, permission.NewGate(b, nil), nil)
	_, err = l.List(ctx, root)
	assert.ErrorIs(t, err, vfs.ErrPermissionDenied)
}
