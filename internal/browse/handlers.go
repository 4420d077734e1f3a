// Package browse serves the catalogue screens: the welcome page, the
// dashboard rows, single categories and the player.
package browse

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/moviestore/internal/auth"
	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/movies"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/settings"
)

type Catalog interface {
	Random(ctx context.Context) (*movies.Movie, error)
	Categories(ctx context.Context) ([]movies.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*movies.Category, error)
	GetByID(ctx context.Context, id string) (*movies.Movie, error)
	Count(ctx context.Context) (int, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	catalog  Catalog
	users    Counter
	settings auth.SettingsReader
	inertia  *inertia.Inertia
	routes   *routes.Table
	logger   *log.Logger
}

func NewHandler(catalog Catalog, users Counter, settings auth.SettingsReader, in *inertia.Inertia, table *routes.Table, logger *log.Logger) *Handler {
	return &Handler{catalog: catalog, users: users, settings: settings, inertia: in, routes: table, logger: logger}
}

func (h *Handler) Mount(r chi.Router, gate *auth.Gate) {
	p := h.routes.Pattern
	r.Get(p(routes.Home), h.welcome)

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth, gate.RequireVerified)
		r.Get(p(routes.Dashboard), h.dashboard)
		r.Get(p(routes.BrowseCategory), h.category)
		r.Get(p(routes.Player), h.player)
	})

	r.With(gate.RequireAdmin).Get(p(routes.AdminDashboard), h.adminDashboard)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "path", r.URL.Path, "err", err)
	h.inertia.Error(w, http.StatusInternalServerError, "Something went wrong.")
}

func (h *Handler) welcome(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		dashboard, err := h.routes.Resolve(routes.Dashboard, nil)
		if err != nil {
			h.fail(w, r, "failed to resolve dashboard", err)
			return
		}
		inertia.Redirect(w, r, dashboard)
		return
	}

	h.inertia.Render(w, r, "Welcome", inertia.Props{
		"canLogin":    true,
		"canRegister": h.settings.Bool(r.Context(), settings.KeyRegistrationEnabled, true),
		"heroImage": inertia.LazyProp(func() (any, error) {
			m, err := h.catalog.Random(r.Context())
			if err != nil || m == nil {
				return "", err
			}
			return m.Thumbnail, nil
		}),
	})
}

// dashboard defers the catalogue queries so partial reloads of one prop skip
// the other.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.inertia.Render(w, r, "Home", inertia.Props{
		"randomMovie": inertia.LazyProp(func() (any, error) {
			m, err := h.catalog.Random(ctx)
			if err != nil {
				return nil, err
			}
			return m, nil
		}),
		"playlist": inertia.LazyProp(func() (any, error) {
			return h.catalog.Categories(ctx)
		}),
		"isLoading": false,
	})
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, movies.ErrNotFound) {
		h.inertia.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, "failed to load category", err)
		return
	}
	h.inertia.Render(w, r, "Category", inertia.Props{"category": c})
}

func (h *Handler) player(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, movies.ErrNotFound) {
		h.inertia.NotFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, "failed to load movie", err)
		return
	}
	h.inertia.Render(w, r, "Player", inertia.Props{"movie": m})
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userCount, err := h.users.Count(ctx)
	if err != nil {
		h.fail(w, r, "failed to count users", err)
		return
	}
	movieCount, err := h.catalog.Count(ctx)
	if err != nil {
		h.fail(w, r, "failed to count movies", err)
		return
	}
	h.inertia.Render(w, r, "Admin/Dashboard", inertia.Props{
		"stats": map[string]int{"users": userCount, "movies": movieCount},
	})
}
