// Package sessions keeps per-browser state between requests: the signed-in
// user and the one-shot flash data (status message, validation errors, old
// input) a redirect carries to the next page.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Payload is the serialised part of a session.
type Payload struct {
	Flash    map[string]string `json:"flash,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Old      map[string]string `json:"old,omitempty"`
	Intended string            `json:"intended,omitempty"`
}

type Session struct {
	ID        string
	UserID    string
	IsAdmin   bool
	ExpiresAt time.Time
	Data      Payload

	dirty     bool
	isNew     bool
	destroyed bool
}

func newSession() *Session {
	return &Session{ID: NewToken(), isNew: true}
}

// Login binds the session to a user.
func (s *Session) Login(userID string, isAdmin bool) {
	s.UserID, s.IsAdmin = userID, isAdmin
	s.dirty = true
}

// Start makes a new session persist, so the browser holds a stable id before
// it submits anything.
func (s *Session) Start() {
	if s.isNew {
		s.dirty = true
	}
}

func (s *Session) Authenticated() bool { return s.UserID != "" }

// Flash stores a one-shot message for the next request.
func (s *Session) Flash(key, value string) {
	if s.Data.Flash == nil {
		s.Data.Flash = make(map[string]string)
	}
	s.Data.Flash[key] = value
	s.dirty = true
}

// PullFlash returns and clears the flash messages.
func (s *Session) PullFlash() map[string]string {
	f := s.Data.Flash
	if f != nil {
		s.Data.Flash = nil
		s.dirty = true
	}
	return f
}

// SetErrors flashes validation errors together with the submitted input.
func (s *Session) SetErrors(errs, old map[string]string) {
	s.Data.Errors, s.Data.Old = errs, old
	s.dirty = true
}

// PullErrors returns and clears the flashed errors and old input.
func (s *Session) PullErrors() (errs, old map[string]string) {
	errs, old = s.Data.Errors, s.Data.Old
	if errs != nil || old != nil {
		s.Data.Errors, s.Data.Old = nil, nil
		s.dirty = true
	}
	return errs, old
}

// SetIntended remembers where a guest was headed before the login wall.
func (s *Session) SetIntended(url string) {
	s.Data.Intended = url
	s.dirty = true
}

// PullIntended returns the remembered URL, or fallback when there is none.
func (s *Session) PullIntended(fallback string) string {
	u := s.Data.Intended
	if u == "" {
		return fallback
	}
	s.Data.Intended = ""
	s.dirty = true
	return u
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewToken returns a random 256-bit hex token.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("sessions: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
