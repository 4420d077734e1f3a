package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/moviestore/internal/config"
	"github.com/JustinTDCT/moviestore/internal/logging"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.URL = ":memory:"
	cfg.App.StorageDir = t.TempDir()
	cfg.App.VersionFile = ""

	app, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestApp(t *testing.T) {
	app := newTestApp(t)
	h := app.Server.Handler()

	serve := func(r *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	t.Run("Welcome Document", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `id="app"`)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	})

	t.Run("Static Assets", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Broken Navigation", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/no/such/page", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("Dashboard Needs Login", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.NotEmpty(t, rec.Result().Cookies(), "intended url is kept in the session")
	})

	t.Run("Auth Posts Are Rate Limited", func(t *testing.T) {
		var last int
		for i := 0; i <= app.Config.Server.AuthRatePerMin; i++ {
			r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"email": {"x@example.com"}}.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.RemoteAddr = "198.51.100.7:4000"
			last = serve(r).Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("No Live Reload Outside Dev Mode", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/__livereload", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
}
