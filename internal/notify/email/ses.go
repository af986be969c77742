package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// sesAPI is the part of *sesv2.Client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends emails via AWS SES v2.
type SESMailer struct {
	client sesAPI
	logger *logging.Logger
}

// NewSESMailer returns nil when client is nil.
func NewSESMailer(client *sesv2.Client, logger *logging.Logger) *SESMailer {
	if client == nil {
		return nil
	}
	return newSESMailer(client, logger)
}

func newSESMailer(client sesAPI, logger *logging.Logger) *SESMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &SESMailer{client: client, logger: logger}
}

// Send sends msg via SES.
func (s *SESMailer) Send(ctx context.Context, msg Message) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("email: SES client not configured")
	}

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}

	body := &types.Body{}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	output, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("email: SES send failed: %w", err)
	}

	s.logger.Debug("email sent via SES", "message_id", aws.ToString(output.MessageId))
	return nil
}

var _ Mailer = (*SESMailer)(nil)
