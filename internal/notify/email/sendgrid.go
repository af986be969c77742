package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// SendGridMailer sends emails through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	logger *logging.Logger
}

// NewSendGridMailer returns nil when apiKey is empty.
func NewSendGridMailer(apiKey string, logger *logging.Logger) *SendGridMailer {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		logger: logger,
	}
}

// Send sends msg via SendGrid.
func (s *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("email: sendgrid client not configured")
	}

	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("email: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("email: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Debug("email sent via sendgrid", "status", response.StatusCode)
	return nil
}

var _ Mailer = (*SendGridMailer)(nil)
