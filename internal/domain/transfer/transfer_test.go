package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/modide/internal/domain/clipboard"
	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/storage/memory"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// faultyBackend fails selected operations by entry name
type faultyBackend struct {
	vfs.Backend
	failRead   map[string]bool
	failRemove bool
}

func (f *faultyBackend) ReadBytes(ctx context.Context, h vfs.Handle) ([]byte, error) {
	if f.failRead[h.Name()] {
		return nil, vfs.IOError("read", h.Name(), errors.New("disk error"))
	}
	return f.Backend.ReadBytes(ctx, h)
}

func (f *faultyBackend) RemoveEntry(ctx context.Context, dir vfs.Handle, name string, recursive bool) error {
	if f.failRemove {
		return vfs.IOError("remove", name, errors.New("busy"))
	}
	return f.Backend.RemoveEntry(ctx, dir, name, recursive)
}

type fixture struct {
	mem    *memory.Backend
	engine *Engine
	lister *listing.Lister
	root   vfs.Handle
}

func newFixture(t *testing.T, wrap func(vfs.Backend) vfs.Backend) *fixture {
	t.Helper()
	mem := memory.New()
	require.NoError(t, mem.WriteFile("mod", "units/tank.ini", []byte("[core]\nname=tank")))
	require.NoError(t, mem.WriteFile("mod", "units/heavy/mammoth.ini", []byte("[core]\nname=mammoth")))
	require.NoError(t, mem.MkdirAll("mod", "units/empty"))
	require.NoError(t, mem.WriteFile("mod", "mod-info.txt", []byte("title: test")))
	require.NoError(t, mem.MkdirAll("mod", "maps"))

	var b vfs.Backend = mem
	if wrap != nil {
		b = wrap(mem)
	}
	root, err := b.AcquireRoot(context.Background(), "mod", vfs.ModeReadWrite)
	require.NoError(t, err)
	gate := permission.NewGate(b, nil)
	return &fixture{
		mem:    mem,
		engine: NewEngine(b, gate, nil),
		lister: listing.NewLister(b, gate, nil),
		root:   root,
	}
}

func (f *fixture) dir(t *testing.T, segs ...string) vfs.Handle {
	t.Helper()
	h, err := vfs.Resolve(context.Background(), f.mem, f.root, segs)
	require.NoError(t, err)
	return h
}

func (f *fixture) entry(t *testing.T, dir vfs.Handle, name string) vfs.Entry {
	t.Helper()
	e, err := f.lister.Lookup(context.Background(), dir, name)
	require.NoError(t, err)
	return e
}

// snapshot maps relative paths to content ("/" suffix marks directories)
func (f *fixture) snapshot(t *testing.T, dir vfs.Handle) map[string]string {
	t.Helper()
	ctx := context.Background()
	out := map[string]string{}
	var walk func(h vfs.Handle, prefix string)
	walk = func(h vfs.Handle, prefix string) {
		entries, err := f.mem.ListChildren(ctx, h)
		require.NoError(t, err)
		for _, e := range entries {
			if e.IsDir() {
				out[prefix+e.Name+"/"] = ""
				walk(e.Handle, prefix+e.Name+"/")
				continue
			}
			data, err := f.mem.ReadBytes(ctx, e.Handle)
			require.NoError(t, err)
			out[prefix+e.Name] = string(data)
		}
	}
	walk(dir, "")
	return out
}

func clip(e vfs.Entry, op clipboard.Operation) clipboard.Entry {
	return clipboard.Entry{Handle: e.Handle, Name: e.Name, Operation: op, IsFolder: e.IsDir()}
}

func TestCopyTreeIdentical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	units := f.entry(t, f.root, "units")
	maps := f.dir(t, "maps")

	report, err := f.engine.CopyTree(ctx, units.Handle, maps, "units")
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 3, report.Directories)

	assert.Equal(t, f.snapshot(t, units.Handle), f.snapshot(t, f.dir(t, "maps", "units")))
}

func TestCopyTreeBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(b vfs.Backend) vfs.Backend {
		return &faultyBackend{Backend: b, failRead: map[string]bool{"tank.ini": true}}
	})
	units := f.entry(t, f.root, "units")

	report, err := f.engine.CopyTree(ctx, units.Handle, f.dir(t, "maps"), "units")
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "units/tank.ini", report.Failures[0].Path)
	assert.ErrorIs(t, report.Failures[0].Err, vfs.ErrIO)
	assert.Equal(t, 1, report.Files)

	snap := f.snapshot(t, f.dir(t, "maps", "units"))
	assert.Contains(t, snap, "heavy/mammoth.ini")
	assert.NotContains(t, snap, "tank.ini")
}

func TestCopyTreeIntoItselfCopiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	units := f.entry(t, f.root, "units")

	report, err := f.engine.CopyTree(ctx, units.Handle, units.Handle, "units")
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, map[string]string{
		"tank.ini":          "[core]\nname=tank",
		"heavy/":            "",
		"heavy/mammoth.ini": "[core]\nname=mammoth",
		"empty/":            "",
	}, f.snapshot(t, f.dir(t, "units", "units")))
}

func TestCopyTreeIntoOwnDescendantCopiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	units := f.entry(t, f.root, "units")

	report, err := f.engine.CopyTree(ctx, units.Handle, f.dir(t, "units", "heavy"), "units")
	require.NoError(t, err)
	assert.Empty(t, report.Failures)

	snap := f.snapshot(t, f.dir(t, "units", "heavy", "units"))
	assert.Contains(t, snap, "heavy/mammoth.ini")
	assert.NotContains(t, snap, "heavy/units/")
}

func TestCopyTreeDepthBound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	require.NoError(t, f.mem.WriteFile("mod", "units/heavy/deep/deeper/x.ini", []byte("x")))
	f.engine = NewEngine(f.mem, permission.NewGate(f.mem, nil), nil, WithMaxDepth(2))
	units := f.entry(t, f.root, "units")

	report, err := f.engine.CopyTree(ctx, units.Handle, f.dir(t, "maps"), "units")
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, ErrDepthExceeded)
	assert.Equal(t, "units/heavy/deep/deeper", report.Failures[0].Path)
}

func TestPasteCopyFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	units := f.entry(t, f.root, "units")

	res, err := f.engine.Paste(ctx, clip(units, clipboard.OpCopy), f.dir(t, "maps"), nil)
	require.NoError(t, err)
	assert.Equal(t, "units", res.TargetName)
	assert.False(t, res.OriginalRetained)
	assert.Equal(t, f.snapshot(t, units.Handle), f.snapshot(t, f.dir(t, "maps", "units")))
}

func TestPasteConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	info := f.entry(t, f.root, "mod-info.txt")
	before := f.snapshot(t, f.root)

	_, err := f.engine.Paste(ctx, clip(info, clipboard.OpCopy), f.root, nil)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "mod-info.txt_copy", conflict.Suggestion)
	assert.ErrorIs(t, err, vfs.ErrNameConflict)
	assert.Equal(t, before, f.snapshot(t, f.root))
}

func TestPasteConflictAlternateName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	info := f.entry(t, f.root, "mod-info.txt")

	var suggested string
	prompter := NamePrompterFunc(func(ctx context.Context, name, suggestion string) (string, error) {
		suggested = suggestion
		return suggestion, nil
	})
	res, err := f.engine.Paste(ctx, clip(info, clipboard.OpCopy), f.root, prompter)
	require.NoError(t, err)
	assert.Equal(t, "mod-info.txt_copy", suggested)
	assert.Equal(t, "mod-info.txt_copy", res.TargetName)

	snap := f.snapshot(t, f.root)
	assert.Equal(t, snap["mod-info.txt"], snap["mod-info.txt_copy"])
}

func TestPasteConflictCancelledOrTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	units := f.entry(t, f.root, "units")

	cancel := NamePrompterFunc(func(ctx context.Context, name, suggestion string) (string, error) {
		return "", nil
	})
	_, err := f.engine.Paste(ctx, clip(units, clipboard.OpCopy), f.root, cancel)
	assert.ErrorIs(t, err, vfs.ErrUserCancelled)

	taken := NamePrompterFunc(func(ctx context.Context, name, suggestion string) (string, error) {
		return "maps", nil
	})
	_, err = f.engine.Paste(ctx, clip(units, clipboard.OpCopy), f.root, taken)
	assert.ErrorIs(t, err, vfs.ErrNameConflict)

	invalid := NamePrompterFunc(func(ctx context.Context, name, suggestion string) (string, error) {
		return "a/b", nil
	})
	_, err = f.engine.Paste(ctx, clip(units, clipboard.OpCopy), f.root, invalid)
	assert.ErrorIs(t, err, vfs.ErrInvalidName)
}

func TestPasteCutRetainsOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	info := f.entry(t, f.root, "mod-info.txt")

	res, err := f.engine.Paste(ctx, clip(info, clipboard.OpCut), f.dir(t, "maps"), nil)
	require.NoError(t, err)
	assert.True(t, res.OriginalRetained)

	_, err = f.lister.Lookup(ctx, f.root, "mod-info.txt")
	assert.NoError(t, err)
	_, err = f.lister.Lookup(ctx, f.dir(t, "maps"), "mod-info.txt")
	assert.NoError(t, err)
}

func TestRenameFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	units := f.entry(t, f.root, "units")
	before := f.snapshot(t, units.Handle)

	_, err := f.engine.Rename(ctx, f.root, units, "vehicles")
	require.NoError(t, err)

	_, err = f.lister.Lookup(ctx, f.root, "units")
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	assert.Equal(t, before, f.snapshot(t, f.dir(t, "vehicles")))
}

func TestRenameSameNameIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	info := f.entry(t, f.root, "mod-info.txt")
	before := f.snapshot(t, f.root)

	_, err := f.engine.Rename(ctx, f.root, info, "mod-info.txt")
	require.NoError(t, err)
	assert.Equal(t, before, f.snapshot(t, f.root))
}

func TestRenameConflictLeavesDirectoryUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	info := f.entry(t, f.root, "mod-info.txt")
	before := f.snapshot(t, f.root)

	_, err := f.engine.Rename(ctx, f.root, info, "maps")
	assert.ErrorIs(t, err, vfs.ErrNameConflict)
	assert.Equal(t, before, f.snapshot(t, f.root))

	_, err = f.engine.Rename(ctx, f.root, info, "../x")
	assert.ErrorIs(t, err, vfs.ErrInvalidName)
}

func TestRenameDeletePhaseFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(b vfs.Backend) vfs.Backend {
		return &faultyBackend{Backend: b, failRemove: true}
	})
	info := f.entry(t, f.root, "mod-info.txt")

	_, err := f.engine.Rename(ctx, f.root, info, "info.txt")
	var phase *PhaseError
	require.True(t, errors.As(err, &phase))
	assert.Equal(t, PhaseDelete, phase.Phase)
	assert.True(t, phase.Committed)
	assert.ErrorIs(t, err, vfs.ErrIO)

	snap := f.snapshot(t, f.root)
	assert.Contains(t, snap, "mod-info.txt")
	assert.Contains(t, snap, "info.txt")
}

func TestRenamePartialCopyKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(b vfs.Backend) vfs.Backend {
		return &faultyBackend{Backend: b, failRead: map[string]bool{"mammoth.ini": true}}
	})
	units := f.entry(t, f.root, "units")

	report, err := f.engine.Rename(ctx, f.root, units, "vehicles")
	var phase *PhaseError
	require.True(t, errors.As(err, &phase))
	assert.Equal(t, PhaseCopy, phase.Phase)
	assert.True(t, phase.Committed)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.ErrorIs(t, err, vfs.ErrIO)
	assert.Len(t, report.Failures, 1)

	_, err = f.lister.Lookup(ctx, f.root, "units")
	assert.NoError(t, err)
}
