// Package email delivers lead notifications to staff by email.
package email

import "context"

// Message is one rendered email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Text     string
	HTML     string
}

// Mailer is an email transport. Implementations can be swapped (SMTP,
// SendGrid, SES) without changing the Sender.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
