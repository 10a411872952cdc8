package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/modide/internal/fileserver"
	"github.com/GriffinCanCode/modide/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/modide/internal/storage/memory"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

func newServer(t *testing.T) (*memory.Backend, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	require.NoError(t, store.WriteFile("tanks", "units/heavy.ini", []byte("[core]")))
	require.NoError(t, store.WriteFile("tanks", "mod-info.txt", []byte("title: Tanks")))

	router := gin.New()
	fileserver.New(store, nil).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return store, srv.URL + "/api"
}

func setup(t *testing.T, cfg Config) (*Backend, vfs.Handle, *memory.Backend) {
	t.Helper()
	store, url := newServer(t)
	cfg.BaseURL = url
	b, err := New(cfg)
	require.NoError(t, err)
	root, err := b.AcquireRoot(context.Background(), "tanks", vfs.ModeReadWrite)
	require.NoError(t, err)
	return b, root, store
}

func names(entries []vfs.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestProjects(t *testing.T) {
	b, _, _ := setup(t, Config{})
	ctx := context.Background()

	list, err := b.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tanks"}, list)

	require.NoError(t, b.CreateProject(ctx, "planes"))
	assert.ErrorIs(t, b.CreateProject(ctx, "planes"), vfs.ErrNameConflict)

	_, err = b.AcquireRoot(ctx, "planes", vfs.ModeRead)
	assert.NoError(t, err)
	_, err = b.AcquireRoot(ctx, "ships", vfs.ModeRead)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	_, err = b.AcquireRoot(ctx, "", vfs.ModeRead)
	assert.ErrorIs(t, err, vfs.ErrUserCancelled)
}

func TestHandlesAndListing(t *testing.T) {
	b, root, _ := setup(t, Config{})
	ctx := context.Background()

	entries, err := b.ListChildren(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"mod-info.txt", "units"}, names(entries))

	units, err := b.GetDirectoryHandle(ctx, root, "units", false)
	require.NoError(t, err)
	children, err := b.ListChildren(ctx, units)
	require.NoError(t, err)
	assert.Equal(t, []string{"heavy.ini"}, names(children))

	_, err = b.GetDirectoryHandle(ctx, root, "mod-info.txt", false)
	assert.ErrorIs(t, err, vfs.ErrNameConflict)
	_, err = b.GetFileHandle(ctx, root, "units", false)
	assert.ErrorIs(t, err, vfs.ErrNameConflict)
	_, err = b.GetFileHandle(ctx, root, "missing", false)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	_, err = b.GetFileHandle(ctx, root, "..", false)
	assert.ErrorIs(t, err, vfs.ErrInvalidName)
}

func TestReadWriteBinary(t *testing.T) {
	b, root, store := setup(t, Config{})
	ctx := context.Background()

	f, err := b.GetFileHandle(ctx, root, "icon.png", true)
	require.NoError(t, err)

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0xff}
	require.NoError(t, b.WriteBytes(ctx, f, png))

	data, err := b.ReadBytes(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	local, err := store.AcquireRoot(ctx, "tanks", vfs.ModeRead)
	require.NoError(t, err)
	lf, err := store.GetFileHandle(ctx, local, "icon.png", false)
	require.NoError(t, err)
	stored, err := store.ReadBytes(ctx, lf)
	require.NoError(t, err)
	assert.Equal(t, png, stored)
}

func TestCreateKeepsExistingFile(t *testing.T) {
	b, root, _ := setup(t, Config{})
	ctx := context.Background()

	f, err := b.GetFileHandle(ctx, root, "mod-info.txt", true)
	require.NoError(t, err)
	data, err := b.ReadBytes(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "title: Tanks", string(data))
}

func TestDirectoriesAndRemove(t *testing.T) {
	b, root, _ := setup(t, Config{})
	ctx := context.Background()

	maps, err := b.GetDirectoryHandle(ctx, root, "maps", true)
	require.NoError(t, err)
	_, err = b.GetFileHandle(ctx, maps, "desert.tmx", true)
	require.NoError(t, err)

	assert.ErrorIs(t, b.RemoveEntry(ctx, root, "maps", false), vfs.ErrNotEmpty)
	require.NoError(t, b.RemoveEntry(ctx, root, "maps", true))

	_, err = b.ListChildren(ctx, maps)
	assert.ErrorIs(t, err, vfs.ErrNotFound, "handles go stale after removal")
	assert.ErrorIs(t, b.RemoveEntry(ctx, root, "maps", true), vfs.ErrNotFound)
}

func TestStaleHandleDoesNotRecreateDirectory(t *testing.T) {
	b, root, store := setup(t, Config{})
	ctx := context.Background()

	units, err := b.GetDirectoryHandle(ctx, root, "units", false)
	require.NoError(t, err)

	storeRoot, err := store.AcquireRoot(ctx, "tanks", vfs.ModeReadWrite)
	require.NoError(t, err)
	require.NoError(t, store.RemoveEntry(ctx, storeRoot, "units", true))

	_, err = b.GetDirectoryHandle(ctx, units, "sub", true)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
	_, err = b.GetFileHandle(ctx, units, "light.ini", true)
	assert.ErrorIs(t, err, vfs.ErrNotFound)

	_, err = store.GetDirectoryHandle(ctx, storeRoot, "units", false)
	assert.ErrorIs(t, err, vfs.ErrNotFound)
}

func TestReadOnly(t *testing.T) {
	store, url := newServer(t)
	_ = store
	b, err := New(Config{BaseURL: url, ReadOnly: true})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = b.AcquireRoot(ctx, "tanks", vfs.ModeReadWrite)
	assert.ErrorIs(t, err, vfs.ErrPermissionDenied)

	root, err := b.AcquireRoot(ctx, "tanks", vfs.ModeRead)
	require.NoError(t, err)
	_, err = b.GetFileHandle(ctx, root, "new.txt", true)
	assert.ErrorIs(t, err, vfs.ErrPermissionDenied)
	assert.ErrorIs(t, b.RemoveEntry(ctx, root, "mod-info.txt", false), vfs.ErrPermissionDenied)
}

func TestServerPermissionDenied(t *testing.T) {
	b, root, store := setup(t, Config{})
	store.SetPermission(vfs.ModeReadWrite, vfs.PermissionDenied)

	err := b.RemoveEntry(context.Background(), root, "mod-info.txt", false)
	assert.ErrorIs(t, err, vfs.ErrPermissionDenied)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"disk on fire","code":"io_failure"}`))
	}))
	t.Cleanup(srv.Close)

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	b, err := New(Config{BaseURL: srv.URL + "/api", Retries: 0, Metrics: metrics})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.ListProjects(ctx)
		require.ErrorIs(t, err, vfs.ErrIO)
		assert.Contains(t, err.Error(), "disk on fire")
	}
	before := calls.Load()

	_, err = b.ListProjects(ctx)
	assert.ErrorIs(t, err, vfs.ErrIO)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, before, calls.Load(), "open breaker does not reach the server")

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.RemoteCalls.WithLabelValues("GET /projects", "500")))
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	b, root, _ := setup(t, Config{})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := b.GetFileHandle(ctx, root, "missing.ini", false)
		require.ErrorIs(t, err, vfs.ErrNotFound)
	}
	_, err := b.ListChildren(ctx, root)
	assert.NoError(t, err)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["tanks"]`))
	}))
	t.Cleanup(srv.Close)

	b, err := New(Config{
		BaseURL:      srv.URL + "/api",
		Retries:      3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	list, err := b.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"tanks"}, list)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCancelledContext(t *testing.T) {
	b, root, _ := setup(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.ListChildren(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}
