package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"abc.jpg", "/storage/abc.jpg"},
		{"https://x/y.jpg", "https://x/y.jpg"},
		{"http://cdn.example.com/a.mp4", "http://cdn.example.com/a.mp4"},
		{"//cdn.example.com/a.png", "//cdn.example.com/a.png"},
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"/thumbs/a.jpg", "/storage/thumbs/a.jpg"},
		{"/storage/a.jpg", "/storage/a.jpg"},
		{"storage-room.jpg", "/storage/storage-room.jpg"},
		{"  movies/b.mp4 ", "/storage/movies/b.mp4"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.ref))
		})
	}
}

func TestResolveOr(t *testing.T) {
	assert.Equal(t, "/storage/a.jpg", ResolveOr("a.jpg", "fallback.jpg"))
	assert.Equal(t, "/storage/fallback.jpg", ResolveOr("", "fallback.jpg"))
	assert.Equal(t, "https://h/p.svg", ResolveOr("  ", "https://h/p.svg"))
	assert.Empty(t, ResolveOr("", ""))
}

func TestFileServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("0123456789"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secret"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "movies", ".private"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movies", ".private", "x.mp4"), []byte("x"), 0644))
	srv := NewFileServer(dir)

	t.Run("Full File", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clip.mp4", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		assert.Equal(t, "0123456789", rec.Body.String())
	})

	t.Run("Byte Range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/clip.mp4", nil)
		req.Header.Set("Range", "bytes=2-4")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "234", rec.Body.String())
	})

	t.Run("Traversal And Hidden Files", func(t *testing.T) {
		for _, p := range []string{"/../../etc/passwd", "/.secret", "/.git/config", "/movies/.private/x.mp4", "/missing.mp4", "/"} {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code, p)
		}
	})
}
