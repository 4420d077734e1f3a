package inertia

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/moviestore/internal/logging"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/views"
)

func newTestInertia(t *testing.T) *Inertia {
	t.Helper()
	app, err := views.NewApp(views.Options{Routes: routes.Default(""), Logger: logging.Discard()})
	require.NoError(t, err)
	return New(app, "v1", logging.Discard())
}

func inertiaRequest(method, target string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.Header.Set(HeaderInertia, "true")
	r.Header.Set(HeaderVersion, "v1")
	return r
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) views.Page {
	t.Helper()
	var page views.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func TestRender(t *testing.T) {
	in := newTestInertia(t)
	in.Share("appName", "MovieStore")
	in.ShareFunc(func(r *http.Request) Props {
		return Props{"errors": map[string]string{}, "flash": map[string]any{"status": ""}}
	})

	t.Run("First Visit Gets Document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		in.Render(rec, httptest.NewRequest(http.MethodGet, "/login", nil), "Auth/Login", Props{"canResetPassword": true})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
		assert.Contains(t, rec.Body.String(), `data-page="`)
		assert.Equal(t, HeaderInertia, rec.Header().Get("Vary"))
	})

	t.Run("Navigation Gets Page Object", func(t *testing.T) {
		rec := httptest.NewRecorder()
		in.Render(rec, inertiaRequest(http.MethodGet, "/login?x=1"), "Auth/Login", Props{"canResetPassword": true})

		assert.Equal(t, "true", rec.Header().Get(HeaderInertia))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		page := decodePage(t, rec)
		assert.Equal(t, "Auth/Login", page.Component)
		assert.Equal(t, "/login?x=1", page.URL)
		assert.Equal(t, "v1", page.Version)
		assert.Equal(t, "MovieStore", page.Props["appName"])
		assert.Equal(t, true, page.Props["canResetPassword"])
		assert.Contains(t, page.HTML, `data-component="login"`)
		assert.NotContains(t, page.HTML, "<!DOCTYPE")
	})

	t.Run("Page Props Win Over Shared", func(t *testing.T) {
		rec := httptest.NewRecorder()
		in.Render(rec, inertiaRequest(http.MethodGet, "/"), "Welcome", Props{"appName": "Other"})
		assert.Equal(t, "Other", decodePage(t, rec).Props["appName"])
	})

	t.Run("Unknown Component Is Broken Navigation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		in.Render(rec, inertiaRequest(http.MethodGet, "/x"), "Missing/View", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "could not be found")
	})
}

func TestLazyAndPartialProps(t *testing.T) {
	in := newTestInertia(t)
	calls := 0
	props := func() Props {
		return Props{
			"randomMovie": LazyProp(func() (any, error) {
				calls++
				return map[string]any{"id": "m1", "title": "Heat"}, nil
			}),
			"playlist": []any{},
			"errors":   map[string]string{"email": "bad"},
		}
	}

	t.Run("Full Render Resolves Lazy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		in.Render(rec, inertiaRequest(http.MethodGet, "/dashboard"), "Home", props())

		page := decodePage(t, rec)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "Heat", page.Props["randomMovie"].(map[string]any)["title"])
	})

	t.Run("Partial Reload Trims Props But Not The Tree", func(t *testing.T) {
		calls = 0
		r := inertiaRequest(http.MethodGet, "/dashboard")
		r.Header.Set(HeaderPartialComponent, "Home")
		r.Header.Set(HeaderPartialData, "playlist")
		rec := httptest.NewRecorder()
		in.Render(rec, r, "Home", props())

		page := decodePage(t, rec)
		assert.Equal(t, 1, calls, "the tree still needs the featured movie")
		assert.Contains(t, page.HTML, "<h1>Heat</h1>")
		assert.NotContains(t, page.HTML, views.DefaultHeroTitle)
		assert.NotContains(t, page.Props, "randomMovie")
		assert.Contains(t, page.Props, "playlist")
		assert.Contains(t, page.Props, "errors", "errors survive partial reloads")
	})

	t.Run("Partial For Other Component Is Full", func(t *testing.T) {
		calls = 0
		r := inertiaRequest(http.MethodGet, "/dashboard")
		r.Header.Set(HeaderPartialComponent, "Category")
		r.Header.Set(HeaderPartialData, "playlist")
		rec := httptest.NewRecorder()
		in.Render(rec, r, "Home", props())

		assert.Equal(t, 1, calls)
	})

	t.Run("Lazy Error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		in.Render(rec, inertiaRequest(http.MethodGet, "/dashboard"), "Home", Props{
			"randomMovie": LazyProp(func() (any, error) { return nil, errors.New("db down") }),
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMiddleware(t *testing.T) {
	in := newTestInertia(t)
	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	h := in.Middleware(redirect)

	t.Run("Stale Version Forces Full Reload", func(t *testing.T) {
		r := inertiaRequest(http.MethodGet, "/dashboard?page=2")
		r.Header.Set(HeaderVersion, "old")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "/dashboard?page=2", rec.Header().Get(HeaderLocation))
	})

	t.Run("Version Ignored For Posts", func(t *testing.T) {
		r := inertiaRequest(http.MethodPost, "/login")
		r.Header.Set(HeaderVersion, "old")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("Redirect Upgraded After Put Patch Delete", func(t *testing.T) {
		for _, m := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, inertiaRequest(m, "/x"))
			assert.Equal(t, http.StatusSeeOther, rec.Code, m)
		}
	})

	t.Run("Plain Requests Pass Through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
	})
}

func TestRedirectHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.Header.Set("Referer", "/login?from=header")
	Back(rec, r, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=header", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	Back(rec, httptest.NewRequest(http.MethodPut, "/x", nil), "/fallback")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/fallback", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	Location(rec, inertiaRequest(http.MethodGet, "/"), "https://accounts.example.com/")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(HeaderLocation), "https://accounts.example.com"))
}
