package auth

import (
	"net/http"
	"sync"

	"github.com/JustinTDCT/moviestore/internal/httputil"
	"github.com/JustinTDCT/moviestore/internal/sessions"
	"github.com/JustinTDCT/moviestore/internal/ui"
)

// SubmitGuard allows one in-flight submission per form per session.
type SubmitGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{inflight: make(map[string]struct{})}
}

// Acquire claims key. The returned release must be called once the
// submission finishes.
func (g *SubmitGuard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, false
	}
	g.inflight[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
	}, true
}

// Page serves a page whose form is submitted through Wrap. It starts the
// session so the later submissions share a key.
func (g *SubmitGuard) Page(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.FromContext(r.Context()).Start()
		next(w, r)
	}
}

// Wrap rejects a submission of form while another from the same session is
// still being handled.
func (g *SubmitGuard) Wrap(form string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := sessions.FromContext(r.Context()).ID + ":" + form
		release, ok := g.Acquire(key)
		if !ok {
			httputil.WriteError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", ui.ErrSubmitInFlight.Error())
			return
		}
		defer release()
		next(w, r)
	}
}
