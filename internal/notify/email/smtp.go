package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// SSL selects implicit TLS (usually port 465). Otherwise STARTTLS is used
	// when the server offers it.
	SSL bool
}

type smtpDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends emails through an authenticated SMTP server.
type SMTPMailer struct {
	dialer smtpDialer
}

// NewSMTPMailer returns nil when host or credentials are missing.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if strings.TrimSpace(cfg.Host) == "" || cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	d := gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTPMailer{dialer: d}
}

// Send delivers msg. gomail has no context support, so the call is abandoned
// when ctx ends first.
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if s == nil || s.dialer == nil {
		return fmt.Errorf("email: smtp not configured")
	}

	m := buildMessage(msg)
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: smtp send: %w", ctx.Err())
	}
}

func buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.From, msg.FromName)
	} else {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m
}

var _ Mailer = (*SMTPMailer)(nil)
