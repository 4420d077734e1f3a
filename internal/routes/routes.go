// Package routes maps logical endpoint names to URLs.
//
// Views never build paths by hand: they receive a [Resolver] at construction
// and ask it for addresses by name, so a view can be rendered in isolation with
// any table.
package routes

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrMissingParam = errors.New("missing route parameter")
)

// Resolver turns a logical endpoint name and its parameters into an address.
type Resolver interface {
	Resolve(name string, params map[string]string) (string, error)
}

// Logical endpoint names.
const (
	Home               = "home"
	Dashboard          = "dashboard"
	BrowseCategory     = "browse.category"
	Player             = "player"
	Login              = "login"
	Register           = "register"
	PasswordRequest    = "password.request"
	PasswordEmail      = "password.email"
	PasswordReset      = "password.reset"
	PasswordStore      = "password.store"
	VerificationNotice = "verification.notice"
	VerificationSend   = "verification.send"
	VerificationVerify = "verification.verify"
	Logout             = "logout"
	AdminLogin         = "admin.login"
	AdminAccess        = "admin.access"
	AdminDashboard     = "admin.dashboard"
	Storage            = "storage"
	Static             = "static"
	LiveReload         = "livereload"
)

// Table is a [Resolver] backed by a name → pattern map. Patterns use chi's
// {param} syntax so the same table also drives route registration.
type Table struct {
	base     string
	patterns map[string]string
}

func NewTable(base string) *Table {
	return &Table{base: strings.TrimRight(base, "/"), patterns: make(map[string]string)}
}

// Default returns the table of every endpoint the application serves.
func Default(base string) *Table {
	return NewTable(base).
		Add(Home, "/").
		Add(Dashboard, "/dashboard").
		Add(BrowseCategory, "/browse/{slug}").
		Add(Player, "/player/{id}").
		Add(Login, "/login").
		Add(Register, "/register").
		Add(PasswordRequest, "/forgot-password").
		Add(PasswordEmail, "/forgot-password").
		Add(PasswordReset, "/reset-password/{token}").
		Add(PasswordStore, "/reset-password").
		Add(VerificationNotice, "/verify-email").
		Add(VerificationSend, "/email/verification-notification").
		Add(VerificationVerify, "/verify-email/{token}").
		Add(Logout, "/logout").
		Add(AdminLogin, "/admin/login").
		Add(AdminAccess, "/admin/login").
		Add(AdminDashboard, "/admin").
		Add(Storage, "/storage").
		Add(Static, "/static").
		Add(LiveReload, "/__livereload")
}

func (t *Table) Add(name, pattern string) *Table {
	t.patterns[name] = pattern
	return t
}

// Pattern returns the raw pattern registered for name, or "" when unknown.
func (t *Table) Pattern(name string) string {
	return t.patterns[name]
}

// Resolve fills the pattern's {param} placeholders from params. Parameters
// that are not placeholders become a sorted query string.
func (t *Table) Resolve(name string, params map[string]string) (string, error) {
	pattern, ok := t.patterns[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	used := make(map[string]bool, len(params))
	var b strings.Builder
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			b.WriteString(pattern)
			break
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("route %q has an unterminated parameter", name)
		}
		key := pattern[open+1 : open+end]
		val, ok := params[key]
		if !ok || val == "" {
			return "", fmt.Errorf("%w: %q needs %q", ErrMissingParam, name, key)
		}
		b.WriteString(pattern[:open])
		b.WriteString(url.PathEscape(val))
		used[key] = true
		pattern = pattern[open+end+1:]
	}

	path := b.String()
	var extra []string
	for k := range params {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		q := url.Values{}
		for _, k := range extra {
			q.Set(k, params[k])
		}
		path += "?" + q.Encode()
	}
	return path, nil
}

// Absolute resolves name and prefixes the table's base URL, for links that
// leave the browser (emails).
func (t *Table) Absolute(name string, params map[string]string) (string, error) {
	path, err := t.Resolve(name, params)
	if err != nil {
		return "", err
	}
	return t.base + path, nil
}

// Pairs turns "k1", "v1", "k2", "v2" into a parameter map.
func Pairs(kv ...string) (map[string]string, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("route parameters must be key/value pairs, got %d values", len(kv))
	}
	params := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return params, nil
}
