package fileserver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/modide/internal/storage/local"
	"github.com/GriffinCanCode/modide/internal/storage/memory"
)

func newRouter(t *testing.T, opts ...Option) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "tanks", "units"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "tanks", "mod-info.txt"), []byte("[mod]\ntitle: Tanks"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "tanks", "units", "heavy.ini"), []byte("[core]"), 0o644))

	backend, err := local.New(base)
	require.NoError(t, err)

	router := gin.New()
	New(backend, nil, opts...).Register(router)
	return router, base
}

func do(router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func content(s string) *string { return &s }

func TestListProjects(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, "GET", "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"tanks"}, names)
}

func TestCreateProject(t *testing.T) {
	router, base := newRouter(t)

	w := do(router, "POST", "/api/projects", ProjectRequest{Name: "planes"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.DirExists(t, filepath.Join(base, "planes"))

	w = do(router, "POST", "/api/projects", ProjectRequest{Name: "planes"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, "POST", "/api/projects", ProjectRequest{Name: ".."})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFiles(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, "GET", "/api/files?project=tanks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []FileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Equal(t, []FileInfo{
		{Name: "units", IsDirectory: true},
		{Name: "mod-info.txt", IsDirectory: false},
	}, entries)

	w = do(router, "GET", "/api/files?project=tanks&dir=units", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Equal(t, []FileInfo{{Name: "heavy.ini"}}, entries)

	assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/files", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/api/files?project=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/files?project=tanks&dir=../..", nil).Code)
}

func TestStat(t *testing.T) {
	router, _ := newRouter(t)

	var info FileInfo
	w := do(router, "GET", "/api/stat?project=tanks&path=units/heavy.ini", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, FileInfo{Name: "heavy.ini"}, info)

	w = do(router, "GET", "/api/stat?project=tanks&path=units", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.IsDirectory)

	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/api/stat?project=tanks&path=units/light.ini", nil).Code)
}

func TestReadFile(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, "GET", "/api/file?project=tanks&filename=units/heavy.ini", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[core]", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/api/file?project=tanks&filename=missing.ini", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/file?project=tanks", nil).Code)
}

func TestPathTraversalRejected(t *testing.T) {
	router, base := newRouter(t)
	secret := filepath.Join(filepath.Dir(base), "secret.txt")
	_ = os.WriteFile(secret, []byte("x"), 0o644)
	t.Cleanup(func() { os.Remove(secret) })

	for _, target := range []string{
		"/api/file?project=tanks&filename=../../secret.txt",
		"/api/file?project=tanks&filename=units/../../secret.txt",
		`/api/file?project=tanks&filename=..\..\secret.txt`,
	} {
		w := do(router, "GET", target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), "path_traversal")
	}

	w := do(router, "POST", "/api/file?project=tanks&filename=../evil.txt", WriteRequest{Content: content("x")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoFileExists(t, filepath.Join(base, "evil.txt"))
}

func TestWriteFile(t *testing.T) {
	router, base := newRouter(t)

	w := do(router, "POST", "/api/file?project=tanks&filename=maps/desert/map.tmx", WriteRequest{Content: content("<map/>")})
	require.Equal(t, http.StatusOK, w.Code)
	data, err := os.ReadFile(filepath.Join(base, "tanks", "maps", "desert", "map.tmx"))
	require.NoError(t, err)
	assert.Equal(t, "<map/>", string(data))

	png := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	w = do(router, "POST", "/api/file?project=tanks&filename=icon.png", WriteRequest{
		Content:  content(base64.StdEncoding.EncodeToString(png)),
		Encoding: EncodingBase64,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data, err = os.ReadFile(filepath.Join(base, "tanks", "icon.png"))
	require.NoError(t, err)
	assert.Equal(t, png, data)

	w = do(router, "POST", "/api/file?project=tanks&filename=a.txt", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "content is required")

	w = do(router, "POST", "/api/file?project=tanks&filename=a.txt", WriteRequest{Content: content("x"), Encoding: "utf-16"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, "POST", "/api/file?project=tanks&filename=units", WriteRequest{Content: content("x")})
	assert.Equal(t, http.StatusConflict, w.Code, "name taken by a directory")
}

func TestWriteFileCreatesProject(t *testing.T) {
	router, base := newRouter(t)

	w := do(router, "POST", "/api/file?project=fresh&filename=mod-info.txt", WriteRequest{Content: content("title: Fresh")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.FileExists(t, filepath.Join(base, "fresh", "mod-info.txt"))
}

func TestWriteFileTooLarge(t *testing.T) {
	router, _ := newRouter(t, WithMaxBody(16))

	w := do(router, "POST", "/api/file?project=tanks&filename=big.txt", WriteRequest{Content: content("0123456789abcdefghijklmnop")})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDeleteFile(t *testing.T) {
	router, base := newRouter(t)

	w := do(router, "DELETE", "/api/file?project=tanks&filename=units", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "not_empty")

	w = do(router, "DELETE", "/api/file?project=tanks&filename=units&recursive=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoDirExists(t, filepath.Join(base, "tanks", "units"))

	w = do(router, "DELETE", "/api/file?project=tanks&filename=units", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMakeDir(t *testing.T) {
	router, base := newRouter(t)

	w := do(router, "POST", "/api/dir?project=tanks&dirname=units/air/jets", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.DirExists(t, filepath.Join(base, "tanks", "units", "air", "jets"))

	w = do(router, "POST", "/api/dir?project=tanks&dirname=mod-info.txt", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMakeDirWithoutParents(t *testing.T) {
	router, base := newRouter(t)

	w := do(router, "POST", "/api/dir?project=tanks&dirname=units/air&parents=false", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.DirExists(t, filepath.Join(base, "tanks", "units", "air"))

	w = do(router, "POST", "/api/dir?project=tanks&dirname=maps/desert&parents=false", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoDirExists(t, filepath.Join(base, "tanks", "maps"))

	w = do(router, "POST", "/api/file?project=tanks&filename=maps/desert.tmx&parents=false", WriteRequest{Content: content("x")})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoDirExists(t, filepath.Join(base, "tanks", "maps"))

	w = do(router, "POST", "/api/file?project=fresh&filename=mod-info.txt&parents=false", WriteRequest{Content: content("x")})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoDirExists(t, filepath.Join(base, "fresh"))
}

func TestReadOnlyBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "tanks"), 0o755))
	backend, err := local.New(base, local.WithReadOnly())
	require.NoError(t, err)

	router := gin.New()
	New(backend, nil).Register(router)

	w := do(router, "POST", "/api/file?project=tanks&filename=a.txt", WriteRequest{Content: content("x")})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusOK, do(router, "GET", "/api/files?project=tanks", nil).Code)
}

func TestMemoryBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := memory.New()
	require.NoError(t, backend.WriteFile("tanks", "units/heavy.ini", []byte("[core]")))

	router := gin.New()
	New(backend, nil).Register(router)

	w := do(router, "GET", "/api/file?project=tanks&filename=units/heavy.ini", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[core]", w.Body.String())
}
