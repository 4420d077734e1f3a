// Package notifications renders and delivers the account emails: the
// verification link and the password reset link.
package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateVerifyEmail   = "verify-email"
	TemplateResetPassword = "reset-password"
)

// Message is one email to send. Data feeds the named template.
type Message struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Sender delivers a message right away.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands a message off for delivery, possibly in the background.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Renderer turns a message into its HTML body.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

func (r *Renderer) Render(msg Message) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, msg.Template, msg.Data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", msg.Template, err)
	}
	return buf.String(), nil
}

// Sync delivers on the caller's goroutine, bounded by a timeout.
type Sync struct {
	sender  Sender
	timeout time.Duration
}

func NewSync(sender Sender, timeout time.Duration) *Sync {
	return &Sync{sender: sender, timeout: timeout}
}

func (s *Sync) Dispatch(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.sender.Send(ctx, msg)
}

// LogSender writes messages to the log instead of sending them, for
// development without an SMTP server.
type LogSender struct {
	renderer *Renderer
	logger   *log.Logger
}

func NewLogSender(renderer *Renderer, logger *log.Logger) *LogSender {
	return &LogSender{renderer: renderer, logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if _, err := s.renderer.Render(msg); err != nil {
		return err
	}
	s.logger.Info("email", "to", msg.To, "subject", msg.Subject, "template", msg.Template, "url", msg.Data["url"])
	return nil
}
