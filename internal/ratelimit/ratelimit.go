// Package ratelimit throttles requests per client address.
package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JustinTDCT/moviestore/internal/httputil"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client.
type Limiter struct {
	every time.Duration
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*entry
}

// PerMinute allows n requests a minute per client, with bursts of n.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	return &Limiter{
		every:   time.Minute / time.Duration(n),
		burst:   n,
		now:     time.Now,
		clients: make(map[string]*entry),
	}
}

func (l *Limiter) get(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = l.now()
	return e
}

// Reserve takes a token for key. It returns zero when the request may go
// ahead, or how long the client has to wait.
func (l *Limiter) Reserve(key string) time.Duration {
	e := l.get(key)
	now := l.now()
	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay
	}
	return 0
}

// Sweep forgets clients idle for longer than idle. It returns how many went.
func (l *Limiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for k, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware answers 429 with Retry-After once a client runs out of tokens.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait := l.Reserve(ClientIP(r)); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			httputil.WriteError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many attempts, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP is the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
