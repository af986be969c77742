package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/studio-leads/internal/config"
	"github.com/wolfman30/studio-leads/internal/notify"
	"github.com/wolfman30/studio-leads/internal/notify/email"
	"github.com/wolfman30/studio-leads/internal/notify/telegram"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// AWSConfigLoader loads SDK config for the SES transport.
type AWSConfigLoader func(ctx context.Context, cfg *appconfig.Config) (aws.Config, error)

// BuildMailer returns the transport selected by EMAIL_PROVIDER, or nil when
// its credentials are missing. A nil mailer leaves the email channel skipped.
func BuildMailer(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (email.Mailer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "", "smtp":
		if m := email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			SSL:      cfg.SMTPSSL,
		}); m != nil {
			return m, nil
		}
	case "sendgrid":
		if m := email.NewSendGridMailer(cfg.SendGridAPIKey, logger); m != nil {
			return m, nil
		}
	case "ses":
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: aws config loader required for ses")
		}
		awsCfg, err := loadAWS(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
			if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
		return email.NewSESMailer(client, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}

	logger.Warn("email transport credentials missing; email notifications disabled", "provider", cfg.EmailProvider)
	return nil, nil
}

// BuildChannels constructs every notification channel once. Channels missing
// configuration are still returned so dispatch reports them as skipped.
func BuildChannels(mailer email.Mailer, cfg *appconfig.Config) []notify.Channel {
	return []notify.Channel{
		email.NewSender(mailer, email.Config{
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			To:       cfg.NotificationEmail,
		}),
		telegram.NewSender(telegram.Config{
			Token:   cfg.TelegramBotToken,
			ChatID:  cfg.TelegramChatID,
			BaseURL: cfg.TelegramAPIBaseURL,
		}),
	}
}
