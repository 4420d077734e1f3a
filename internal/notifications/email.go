package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	gomail "gopkg.in/mail.v2"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers messages over SMTP.
type EmailSender struct {
	cfg      EmailConfig
	renderer *Renderer
	logger   *log.Logger
}

func NewEmailSender(cfg EmailConfig, renderer *Renderer, logger *log.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, renderer: renderer, logger: logger}
}

// Build renders msg into a mail message ready to send.
func (s *EmailSender) Build(msg Message) (*gomail.Message, error) {
	html, err := s.renderer.Render(msg)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", plainText(msg))
	m.AddAlternative("text/html", html)
	return m, nil
}

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	m, err := s.Build(msg)
	if err != nil {
		return err
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		d.Timeout = time.Until(deadline)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Info("email sent", "to", msg.To, "template", msg.Template)
	return nil
}

func plainText(msg Message) string {
	return fmt.Sprintf("%s\n\n%v\n\nIf you did not request this, no further action is required.", msg.Subject, msg.Data["url"])
}
