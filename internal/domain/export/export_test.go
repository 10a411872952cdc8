package export

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/modide/internal/domain/listing"
	"github.com/GriffinCanCode/modide/internal/domain/permission"
	"github.com/GriffinCanCode/modide/internal/storage/memory"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

type unreadable struct {
	vfs.Backend
	name string
}

func (u *unreadable) ReadBytes(ctx context.Context, h vfs.Handle) ([]byte, error) {
	if h.Name() == u.name {
		return nil, vfs.IOError("read", h.Name(), errors.New("bad sector"))
	}
	return u.Backend.ReadBytes(ctx, h)
}

func setup(t *testing.T, wrap func(vfs.Backend) vfs.Backend) (*Exporter, vfs.Handle) {
	t.Helper()
	mem := memory.New()
	require.NoError(t, mem.WriteFile("mod", "mod-info.txt", []byte("title: demo")))
	require.NoError(t, mem.WriteFile("mod", "units/tank/tank.ini", []byte("[core]")))
	require.NoError(t, mem.WriteFile("mod", "units/tank/tank.png", []byte{1, 2, 3}))
	require.NoError(t, mem.MkdirAll("mod", "maps"))

	var b vfs.Backend = mem
	if wrap != nil {
		b = wrap(mem)
	}
	root, err := b.AcquireRoot(context.Background(), "mod", vfs.ModeRead)
	require.NoError(t, err)
	lister := listing.NewLister(b, permission.NewGate(b, nil), nil)
	return NewExporter(b, lister, nil), root
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func readTar(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	tr := tar.NewReader(r)
	out := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		out[hdr.Name] = string(body)
	}
}

var want = map[string]string{
	"maps/":               "",
	"units/":              "",
	"units/tank/":         "",
	"units/tank/tank.ini": "[core]",
	"units/tank/tank.png": "\x01\x02\x03",
	"mod-info.txt":        "title: demo",
}

func TestExportZip(t *testing.T) {
	for _, format := range []Format{FormatZip, FormatRWMod} {
		t.Run(string(format), func(t *testing.T) {
			e, root := setup(t, nil)
			var buf bytes.Buffer
			report, err := e.Export(context.Background(), root, format, &buf)
			require.NoError(t, err)
			assert.True(t, report.OK())
			assert.Equal(t, 3, report.Files)
			assert.Equal(t, want, readZip(t, buf.Bytes()))
		})
	}
}

func TestExportTarGz(t *testing.T) {
	e, root := setup(t, nil)
	var buf bytes.Buffer
	_, err := e.Export(context.Background(), root, FormatTarGz, &buf)
	require.NoError(t, err)

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, readTar(t, gz))
}

func TestExportTarZst(t *testing.T) {
	e, root := setup(t, nil)
	var buf bytes.Buffer
	_, err := e.Export(context.Background(), root, FormatTarZst, &buf)
	require.NoError(t, err)

	zr, err := zstd.NewReader(&buf)
	require.NoError(t, err)
	defer zr.Close()
	assert.Equal(t, want, readTar(t, zr))
}

func TestExportSkipsUnreadable(t *testing.T) {
	e, root := setup(t, func(b vfs.Backend) vfs.Backend {
		return &unreadable{Backend: b, name: "tank.png"}
	})
	var buf bytes.Buffer
	report, err := e.Export(context.Background(), root, FormatZip, &buf)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "units/tank/tank.png", report.Failures[0].Path)

	files := readZip(t, buf.Bytes())
	assert.Contains(t, files, "units/tank/tank.ini")
	assert.NotContains(t, files, "units/tank/tank.png")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExportLogsCloseFailureAfterCancel(t *testing.T) {
	e, root := setup(t, nil)
	core, logs := observer.New(zapcore.WarnLevel)
	e.logger = zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Export(ctx, root, FormatZip, brokenWriter{})
	assert.ErrorIs(t, err, context.Canceled)

	entries := logs.FilterMessage("closing archive after failed export").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "disk full")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatZip, f)

	f, err = ParseFormat("rwmod")
	require.NoError(t, err)
	assert.Equal(t, "mymod.rwmod", FileName("mymod", f))

	_, err = ParseFormat("rar")
	assert.Error(t, err)
}
