package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const CookieName = "session"

type ctxKey struct{}

// Manager loads the session for each request and writes it back when the
// handler changed it.
type Manager struct {
	store    Store
	lifetime time.Duration
	secure   bool
	logger   *log.Logger
}

func NewManager(store Store, lifetime time.Duration, secure bool, logger *log.Logger) *Manager {
	return &Manager{store: store, lifetime: lifetime, secure: secure, logger: logger}
}

func (m *Manager) Store() Store { return m.store }

// FromContext returns the request's session. Outside the middleware it returns
// a fresh session that is never saved.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	return newSession()
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func (m *Manager) load(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return newSession()
	}
	s, err := m.store.Get(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Error("failed to load session", "err", err)
		}
		return newSession()
	}
	return s
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.load(r)
		cw := &commitWriter{ResponseWriter: w, commit: func() { m.commit(w, r, s) }}
		next.ServeHTTP(cw, r.WithContext(WithSession(r.Context(), s)))
		cw.flush()
	})
}

// Regenerate moves the session to a new id, dropping the old one. Call it on
// every change of privilege.
func (m *Manager) Regenerate(ctx context.Context, s *Session) error {
	if !s.isNew {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	s.ID = NewToken()
	s.isNew = true
	s.dirty = true
	return nil
}

// Destroy ends the session; the cookie is expired when the response is
// written.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	s.destroyed = true
	s.UserID, s.IsAdmin = "", false
	s.Data = Payload{}
	if s.isNew {
		return nil
	}
	return m.store.Delete(ctx, s.ID)
}

func (m *Manager) commit(w http.ResponseWriter, r *http.Request, s *Session) {
	if s.destroyed {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
		return
	}
	if !s.dirty {
		return
	}
	s.ExpiresAt = time.Now().Add(m.lifetime)
	if err := m.store.Save(r.Context(), s); err != nil {
		m.logger.Error("failed to save session", "err", err)
		return
	}
	s.dirty = false
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
	})
	s.isNew = false
}

// commitWriter saves the session just before the response headers go out.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	done   bool
}

func (cw *commitWriter) flush() {
	if !cw.done {
		cw.done = true
		cw.commit()
	}
}

func (cw *commitWriter) WriteHeader(code int) {
	cw.flush()
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	cw.flush()
	return cw.ResponseWriter.Write(b)
}

func (cw *commitWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }
