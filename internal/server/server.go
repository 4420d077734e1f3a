// Package server assembles the HTTP stack and runs it.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JustinTDCT/moviestore/internal/assets"
	"github.com/JustinTDCT/moviestore/internal/auth"
	"github.com/JustinTDCT/moviestore/internal/browse"
	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/livereload"
	"github.com/JustinTDCT/moviestore/internal/ratelimit"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/sessions"
)

type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	Logger          *log.Logger

	Routes     *routes.Table
	Inertia    *inertia.Inertia
	Sessions   *sessions.Manager
	Users      auth.UserFinder
	Gate       *auth.Gate
	Auth       *auth.Handler
	Browse     *browse.Handler
	Limiter    *ratelimit.Limiter
	LiveReload *livereload.Hub

	Static     fs.FS
	StorageDir string
}

type Server struct {
	opts   Options
	router chi.Router
}

func New(opts Options) *Server {
	s := &Server{opts: opts, router: chi.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	r := s.router
	p := s.opts.Routes.Pattern

	r.Use(requestID, middleware.RealIP, requestLogger(s.opts.Logger), middleware.Recoverer, securityHeaders)
	r.Use(middleware.Compress(5, "text/html", "text/css", "application/javascript", "application/json", "image/svg+xml"))

	r.Handle(p(routes.Static)+"/*", http.StripPrefix(p(routes.Static), http.FileServer(http.FS(s.opts.Static))))
	r.Handle(p(routes.Storage)+"/*", http.StripPrefix(p(routes.Storage), assets.NewFileServer(s.opts.StorageDir)))
	if s.opts.LiveReload != nil {
		r.Handle(p(routes.LiveReload), s.opts.LiveReload)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30*time.Second))
		r.Use(s.opts.Sessions.Middleware, auth.LoadUser(s.opts.Users, s.opts.Logger), s.opts.Inertia.Middleware)

		limit := func(next http.Handler) http.Handler { return next }
		if s.opts.Limiter != nil {
			limit = s.opts.Limiter.Middleware
		}
		s.opts.Auth.Mount(r, s.opts.Gate, limit)
		s.opts.Browse.Mount(r, s.opts.Gate)
		r.NotFound(s.opts.Inertia.NotFound)
	})
}

// ListenAndServe serves until ctx is cancelled, then drains open requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
