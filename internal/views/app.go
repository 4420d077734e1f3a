package views

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/JustinTDCT/moviestore/internal/routes"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

//go:embed static
var embeddedStatic embed.FS

// Static returns the bundled browser assets (bootstrap script, styles,
// images).
func Static() fs.FS {
	sub, _ := fs.Sub(embeddedStatic, "static")
	return sub
}

// Page is the page object exchanged with the browser bootstrap.
type Page struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
	URL       string         `json:"url"`
	Version   string         `json:"version"`
	HTML      string         `json:"html,omitempty"`
}

type Options struct {
	Routes   routes.Resolver
	Registry *Registry
	Logger   *log.Logger
	Title    string
	// Dir, when set, loads templates from disk instead of the embedded copy
	// so Reload picks up edits.
	Dir        string
	LiveReload bool
}

// App renders registered views into the root document.
type App struct {
	opts Options
	env  Env

	mu   sync.RWMutex
	tmpl *template.Template
}

func NewApp(opts Options) (*App, error) {
	if opts.Registry == nil {
		opts.Registry = Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Title == "" {
		opts.Title = "MovieStore"
	}
	a := &App{
		opts: opts,
		env:  Env{Routes: opts.Routes, Logger: opts.Logger},
	}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload re-parses the template set.
func (a *App) Reload() error {
	var src fs.FS = embeddedTemplates
	pattern := "templates/*.html"
	if a.opts.Dir != "" {
		src = os.DirFS(a.opts.Dir)
		pattern = "*.html"
	}
	t, err := template.New("views").Funcs(a.funcs()).ParseFS(src, pattern)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	a.mu.Lock()
	a.tmpl = t
	a.mu.Unlock()
	return nil
}

func (a *App) Registry() *Registry { return a.opts.Registry }

func (a *App) templates() *template.Template {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tmpl
}

type treeData struct {
	Model any
	Page  Page
}

// Tree renders the mounted tree of page alone, without the document.
func (a *App) Tree(page Page) (template.HTML, error) {
	view, err := a.opts.Registry.Lookup(page.Component)
	if err != nil {
		return "", err
	}
	model, err := view.Normalize(a.env, Props(page.Props))
	if err != nil {
		return "", fmt.Errorf("normalize %s: %w", page.Component, err)
	}
	var buf bytes.Buffer
	if err := a.templates().ExecuteTemplate(&buf, view.Name(), treeData{Model: model, Page: page}); err != nil {
		return "", fmt.Errorf("render %s: %w", page.Component, err)
	}
	return template.HTML(buf.String()), nil
}

type documentData struct {
	Title      string
	Page       Page
	PageJSON   string
	Body       template.HTML
	LiveReload bool
}

// Render writes the full document with page mounted into it. Nothing is
// written when the view fails, so the caller can still answer with an error.
func (a *App) Render(w io.Writer, page Page) error {
	body, err := a.Tree(page)
	if err != nil {
		return err
	}
	return a.document(w, page, body)
}

func (a *App) document(w io.Writer, page Page, body template.HTML) error {
	page.HTML = ""
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	var buf bytes.Buffer
	err = a.templates().ExecuteTemplate(&buf, "document", documentData{
		Title:      a.opts.Title,
		Page:       page,
		PageJSON:   string(raw),
		Body:       body,
		LiveReload: a.opts.LiveReload,
	})
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

type errorData struct {
	Status  int
	Title   string
	Message string
}

// RenderError answers with the error page. An unknown view is a broken
// navigation and maps to 404.
func (a *App) RenderError(w http.ResponseWriter, status int, message string) {
	var buf bytes.Buffer
	err := a.templates().ExecuteTemplate(&buf, "error", treeData{Model: errorData{
		Status:  status,
		Title:   http.StatusText(status),
		Message: message,
	}})
	if err == nil {
		var doc bytes.Buffer
		page := Page{Component: "Error", Props: map[string]any{"status": status}}
		if err = a.document(&doc, page, template.HTML(buf.String())); err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(status)
			_, _ = doc.WriteTo(w)
			return
		}
	}
	a.opts.Logger.Error("failed to render error page", "err", err)
	http.Error(w, message, status)
}

// StatusFor maps a render failure to the status it is answered with.
func StatusFor(err error) int {
	if errors.Is(err, ErrViewNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
