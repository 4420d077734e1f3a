package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/sessions"
	"github.com/JustinTDCT/moviestore/internal/users"
)

type contextKey string

const ContextUser contextKey = "user"

// UserFinder looks up the user a session points at.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// LoadUser resolves the session's user and puts it in the request context.
// Sessions pointing at a deleted user are signed out.
func LoadUser(finder UserFinder, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := sessions.FromContext(r.Context())
			if !s.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			u, err := finder.GetByID(r.Context(), s.UserID)
			switch {
			case errors.Is(err, users.ErrNotFound):
				s.Login("", false)
			case err != nil:
				logger.Error("failed to load session user", "user_id", s.UserID, "err", err)
			default:
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, u *users.User) context.Context {
	return context.WithValue(ctx, ContextUser, u)
}

func UserFromContext(ctx context.Context) *users.User {
	if u, ok := ctx.Value(ContextUser).(*users.User); ok {
		return u
	}
	return nil
}

// Gate holds the access rules for route groups. Each rule redirects to a
// named route when it does not hold.
type Gate struct {
	routes routes.Resolver
	logger *log.Logger
}

func NewGate(resolver routes.Resolver, logger *log.Logger) *Gate {
	return &Gate{routes: resolver, logger: logger}
}

func (g *Gate) path(name string) string {
	p, err := g.routes.Resolve(name, nil)
	if err != nil {
		g.logger.Error("failed to resolve route", "route", name, "err", err)
		return "/"
	}
	return p
}

// RequireAuth sends guests to the login page, remembering where they were
// headed.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			if r.Method == http.MethodGet {
				sessions.FromContext(r.Context()).SetIntended(r.URL.RequestURI())
			}
			inertia.Redirect(w, r, g.path(routes.Login))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireGuest sends signed-in users to the dashboard.
func (g *Gate) RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) != nil {
			inertia.Redirect(w, r, g.path(routes.Dashboard))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := UserFromContext(r.Context()); u == nil || !u.IsAdmin {
			inertia.Redirect(w, r, g.path(routes.AdminLogin))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerified must run after RequireAuth.
func (g *Gate) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := UserFromContext(r.Context()); u == nil || !u.Verified() {
			inertia.Redirect(w, r, g.path(routes.VerificationNotice))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SharedProps are the props every page receives: the signed-in user and the
// flash data left by the previous request, which reading consumes.
func SharedProps(r *http.Request) inertia.Props {
	s := sessions.FromContext(r.Context())
	errs, old := s.PullErrors()
	if errs == nil {
		errs = map[string]string{}
	}

	var user any
	if u := UserFromContext(r.Context()); u != nil {
		user = u.Props()
	}

	return inertia.Props{
		"auth":   map[string]any{"user": user},
		"flash":  map[string]any{"status": s.PullFlash()["status"]},
		"errors": errs,
		"old":    old,
	}
}
