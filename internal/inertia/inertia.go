// Package inertia speaks the page-object protocol between the server-side
// views and the browser bootstrap: a first visit gets the full document, a
// client-side navigation (X-Inertia request header) gets the page object as
// JSON with the rendered tree inside it.
package inertia

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/JustinTDCT/moviestore/internal/views"
)

const (
	HeaderInertia          = "X-Inertia"
	HeaderVersion          = "X-Inertia-Version"
	HeaderLocation         = "X-Inertia-Location"
	HeaderPartialComponent = "X-Inertia-Partial-Component"
	HeaderPartialData      = "X-Inertia-Partial-Data"
)

// Props is the payload handed to a view. Values must encode to JSON once
// lazy props are resolved.
type Props map[string]any

// LazyProp is evaluated once, when the page is rendered. Handlers that
// redirect or fail before rendering never pay for it.
type LazyProp func() (any, error)

// Inertia renders pages through a [views.App].
type Inertia struct {
	app     *views.App
	version string
	logger  *log.Logger
	shared  Props
	sharers []func(*http.Request) Props
}

func New(app *views.App, version string, logger *log.Logger) *Inertia {
	return &Inertia{app: app, version: version, logger: logger, shared: Props{}}
}

func (i *Inertia) Version() string { return i.version }

// Share adds a prop sent with every page.
func (i *Inertia) Share(key string, value any) {
	i.shared[key] = value
}

// ShareFunc adds props computed per request, such as the current user.
func (i *Inertia) ShareFunc(fn func(*http.Request) Props) {
	i.sharers = append(i.sharers, fn)
}

// IsInertia reports whether r is a client-side navigation.
func IsInertia(r *http.Request) bool {
	return r.Header.Get(HeaderInertia) != ""
}

// Render answers r with component and props. Props passed here win over
// shared props of the same name.
func (i *Inertia) Render(w http.ResponseWriter, r *http.Request, component string, props Props) {
	page, err := i.page(r, component, props)
	if err != nil {
		i.fail(w, r, err)
		return
	}

	if IsInertia(r) {
		tree, err := i.app.Tree(page)
		if err != nil {
			i.fail(w, r, err)
			return
		}
		page.HTML = string(tree)
		// the tree always comes from the full props; a partial reload only
		// trims the data sent alongside it
		if only := partialKeys(r, component); only != nil {
			for k := range page.Props {
				if !only[k] && k != "errors" {
					delete(page.Props, k)
				}
			}
		}
		w.Header().Set(HeaderInertia, "true")
		vary(w.Header())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(page); err != nil {
			i.logger.Error("failed to write page", "component", component, "err", err)
		}
		return
	}

	var buf bytes.Buffer
	if err := i.app.Render(&buf, page); err != nil {
		i.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	vary(w.Header())
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (i *Inertia) page(r *http.Request, component string, props Props) (views.Page, error) {
	merged := maps.Clone(i.shared)
	for _, fn := range i.sharers {
		maps.Copy(merged, fn(r))
	}
	maps.Copy(merged, props)

	for k, v := range merged {
		lazy, ok := v.(LazyProp)
		if !ok {
			continue
		}
		resolved, err := lazy()
		if err != nil {
			return views.Page{}, fmt.Errorf("prop %q: %w", k, err)
		}
		merged[k] = resolved
	}

	// the views read props exactly as the browser will see them
	raw, err := json.Marshal(merged)
	if err != nil {
		return views.Page{}, fmt.Errorf("encode props: %w", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return views.Page{}, fmt.Errorf("decode props: %w", err)
	}

	return views.Page{
		Component: component,
		Props:     decoded,
		URL:       r.URL.RequestURI(),
		Version:   i.version,
	}, nil
}

// partialKeys returns the requested prop names of a partial reload of
// component, or nil for a full render.
func partialKeys(r *http.Request, component string) map[string]bool {
	if r.Header.Get(HeaderPartialComponent) != component {
		return nil
	}
	data := r.Header.Get(HeaderPartialData)
	if data == "" {
		return nil
	}
	keys := make(map[string]bool)
	for _, k := range strings.Split(data, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = true
		}
	}
	return keys
}

func (i *Inertia) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := views.StatusFor(err)
	if status == http.StatusNotFound {
		i.logger.Warn("broken navigation", "path", r.URL.Path, "err", err)
		i.app.RenderError(w, status, "The page you were looking for could not be found.")
		return
	}
	i.logger.Error("failed to render page", "path", r.URL.Path, "err", err)
	i.app.RenderError(w, status, "Something went wrong.")
}

// NotFound renders the error page for a missing resource.
func (i *Inertia) NotFound(w http.ResponseWriter, r *http.Request) {
	i.Error(w, http.StatusNotFound, "The page you were looking for could not be found.")
}

// Error renders the error page with an arbitrary status.
func (i *Inertia) Error(w http.ResponseWriter, status int, message string) {
	i.app.RenderError(w, status, message)
}

func vary(h http.Header) {
	for _, v := range h.Values("Vary") {
		if v == HeaderInertia {
			return
		}
	}
	h.Add("Vary", HeaderInertia)
}
