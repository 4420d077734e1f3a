package inertia

import (
	"net/http"
)

// Middleware forces a full reload when the browser's asset version is stale
// and upgrades redirects after PUT, PATCH and DELETE to 303 so the follow-up
// request is a GET.
func (i *Inertia) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsInertia(r) {
			next.ServeHTTP(w, r)
			return
		}
		vary(w.Header())
		if r.Method == http.MethodGet && r.Header.Get(HeaderVersion) != i.version {
			Location(w, r, r.URL.RequestURI())
			return
		}
		next.ServeHTTP(&redirectWriter{ResponseWriter: w, method: r.Method}, r)
	})
}

type redirectWriter struct {
	http.ResponseWriter
	method string
}

func (rw *redirectWriter) WriteHeader(code int) {
	if code == http.StatusFound && seeOther(rw.method) {
		code = http.StatusSeeOther
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *redirectWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func seeOther(method string) bool {
	switch method {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Redirect sends the visit to url.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	code := http.StatusFound
	if seeOther(r.Method) {
		code = http.StatusSeeOther
	}
	http.Redirect(w, r, url, code)
}

// Back redirects to the referring page, or fallback without one.
func Back(w http.ResponseWriter, r *http.Request, fallback string) {
	if ref := r.Referer(); ref != "" {
		Redirect(w, r, ref)
		return
	}
	Redirect(w, r, fallback)
}

// Location makes the browser leave the client-side app and load url in full.
func Location(w http.ResponseWriter, r *http.Request, url string) {
	if IsInertia(r) {
		w.Header().Set(HeaderLocation, url)
		w.WriteHeader(http.StatusConflict)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
