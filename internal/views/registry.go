// Package views holds the named page views, the one place each view turns
// loosely typed props into a fully defaulted model, and the renderer that
// mounts the resulting tree into the document.
package views

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/JustinTDCT/moviestore/internal/routes"
)

var (
	ErrViewNotFound  = errors.New("view not found")
	ErrDuplicateView = errors.New("view already registered")
)

// Props is the read-only payload a view receives for one render.
type Props map[string]any

// Env carries the capabilities a view may use while normalising its props.
type Env struct {
	Routes routes.Resolver
	Logger *log.Logger
}

// View is one server-resolvable page. Normalize is the only place the view
// applies defaults; the template it names renders the returned model as is.
type View interface {
	Name() string
	Normalize(env Env, props Props) (any, error)
}

// Registry is the fixed set of views the application can mount.
type Registry struct {
	views map[string]View
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string]View)}
}

func (r *Registry) Register(v View) error {
	if _, ok := r.views[v.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateView, v.Name())
	}
	r.views[v.Name()] = v
	return nil
}

func (r *Registry) Lookup(name string) (View, error) {
	v, ok := r.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrViewNotFound, name)
	}
	return v, nil
}

// Names returns the registered view names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.views))
	for n := range r.views {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry holding every page view.
func Default() *Registry {
	r := NewRegistry()
	for _, v := range []View{
		LoginView{},
		RegisterView{},
		ForgotPasswordView{},
		ResetPasswordView{},
		VerifyEmailView{},
		AdminLoginView{},
		AdminDashboardView{},
		WelcomeView{},
		HomeView{},
		CategoryView{},
		PlayerView{},
	} {
		r.mustRegister(v)
	}
	return r
}

func (r *Registry) mustRegister(v View) {
	if err := r.Register(v); err != nil {
		panic(err)
	}
}
