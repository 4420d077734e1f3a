package browse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/moviestore/internal/auth"
	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/logging"
	"github.com/JustinTDCT/moviestore/internal/movies"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/settings"
	"github.com/JustinTDCT/moviestore/internal/testutil"
	"github.com/JustinTDCT/moviestore/internal/users"
	"github.com/JustinTDCT/moviestore/internal/views"
)

// countingCatalog records how often the hero query runs.
type countingCatalog struct {
	*movies.Repository
	random atomic.Int32
}

func (c *countingCatalog) Random(ctx context.Context) (*movies.Movie, error) {
	c.random.Add(1)
	return c.Repository.Random(ctx)
}

type fixture struct {
	router  http.Handler
	catalog *countingCatalog
	heat    *movies.Movie
	user    *users.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database := testutil.OpenDB(t)
	logger := logging.Discard()
	table := routes.Default("")

	repo := movies.NewRepository(database.DB)
	heat := &movies.Movie{Title: "Heat", Video: "heat.mp4", Thumbnail: "heat.jpg", Rating: "R", ReleaseYear: 1995, Genres: []string{"Crime"}}
	require.NoError(t, repo.Create(ctx, heat))
	crime := &movies.Category{Slug: "crime", Title: "Crime Classics", SortOrder: 1}
	require.NoError(t, repo.CreateCategory(ctx, crime))
	require.NoError(t, repo.AddToCategory(ctx, crime.ID, heat.ID))
	require.NoError(t, repo.CreateCategory(ctx, &movies.Category{Slug: "soon", Title: "Coming Soon", SortOrder: 2}))

	app, err := views.NewApp(views.Options{Routes: table, Logger: logger})
	require.NoError(t, err)
	in := inertia.New(app, "v1", logger)
	in.ShareFunc(auth.SharedProps)

	f := &fixture{catalog: &countingCatalog{Repository: repo}, heat: heat}
	h := NewHandler(f.catalog, users.NewRepository(database.DB), settings.NewRepository(database.DB), in, table, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if f.user != nil {
				r = r.WithContext(auth.WithUser(r.Context(), f.user))
			}
			next.ServeHTTP(w, r)
		})
	})
	h.Mount(r, auth.NewGate(table, logger))
	f.router = r
	return f
}

func (f *fixture) signIn(admin, verified bool) {
	u := &users.User{ID: "u1", Name: "Ann", Email: "ann@example.com", IsAdmin: admin}
	if verified {
		now := time.Now()
		u.EmailVerifiedAt = &now
	}
	f.user = u
}

func (f *fixture) serve(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, r)
	return rec
}

func visit(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set(inertia.HeaderInertia, "true")
	r.Header.Set(inertia.HeaderVersion, "v1")
	return r
}

func (f *fixture) page(t *testing.T, r *http.Request) views.Page {
	t.Helper()
	rec := f.serve(r)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p views.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestWelcome(t *testing.T) {
	f := newFixture(t)

	p := f.page(t, visit("/"))
	assert.Equal(t, "Welcome", p.Component)
	assert.Equal(t, true, p.Props["canRegister"])
	assert.Equal(t, "heat.jpg", p.Props["heroImage"])
	assert.Contains(t, p.HTML, `src="/storage/heat.jpg"`)

	f.signIn(false, true)
	rec := f.serve(visit("/"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(visit("/dashboard"))
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	f.signIn(false, false)
	rec = f.serve(visit("/dashboard"))
	assert.Equal(t, "/verify-email", rec.Header().Get("Location"))

	f.signIn(false, true)
	p := f.page(t, visit("/dashboard"))
	assert.Equal(t, "Home", p.Component)
	assert.Equal(t, f.heat.ID, p.Props["randomMovie"].(map[string]any)["id"])
	assert.Len(t, p.Props["playlist"], 2)
	assert.Contains(t, p.HTML, "Crime Classics")
	assert.Contains(t, p.HTML, "Coming Soon")
	assert.Equal(t, int32(1), f.catalog.random.Load())

	t.Run("Partial Reload Keeps The Hero", func(t *testing.T) {
		r := visit("/dashboard")
		r.Header.Set(inertia.HeaderPartialComponent, "Home")
		r.Header.Set(inertia.HeaderPartialData, "playlist")
		p := f.page(t, r)
		assert.Contains(t, p.Props, "playlist")
		assert.NotContains(t, p.Props, "randomMovie")
		assert.Contains(t, p.Props, "errors")
		assert.Contains(t, p.HTML, "<h1>"+f.heat.Title+"</h1>")
		assert.NotContains(t, p.HTML, `data-phase="loading"`)
		assert.Contains(t, p.HTML, "Crime Classics")
	})
}

func TestCategory(t *testing.T) {
	f := newFixture(t)
	f.signIn(false, true)

	p := f.page(t, visit("/browse/crime"))
	assert.Equal(t, "Category", p.Component)
	assert.Equal(t, "Crime Classics", p.Props["category"].(map[string]any)["title"])
	assert.Contains(t, p.HTML, "Heat")

	p = f.page(t, visit("/browse/soon"))
	assert.Contains(t, p.HTML, "data-inert", "an empty row cannot scroll")

	assert.Equal(t, http.StatusNotFound, f.serve(visit("/browse/missing")).Code)
}

func TestPlayer(t *testing.T) {
	f := newFixture(t)
	f.signIn(false, true)

	p := f.page(t, visit("/player/"+f.heat.ID))
	assert.Equal(t, "Player", p.Component)
	assert.Contains(t, p.HTML, `src="/storage/heat.mp4"`)
	assert.Contains(t, p.HTML, `poster="/storage/heat.jpg"`)

	assert.Equal(t, http.StatusNotFound, f.serve(visit("/player/missing")).Code)
}

func TestAdminDashboard(t *testing.T) {
	f := newFixture(t)

	f.signIn(false, true)
	rec := f.serve(visit("/admin"))
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	f.signIn(true, true)
	p := f.page(t, visit("/admin"))
	assert.Equal(t, "Admin/Dashboard", p.Component)
	stats := p.Props["stats"].(map[string]any)
	assert.EqualValues(t, 0, stats["users"])
	assert.EqualValues(t, 1, stats["movies"])
}
