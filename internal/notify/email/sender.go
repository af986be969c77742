package email

import (
	"context"
	"errors"
	"strings"

	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/notify"
)

// ChannelName identifies email in dispatch reports.
const ChannelName = "email"

// Config holds the addressing for lead notifications.
type Config struct {
	From     string
	FromName string
	// To is the staff inbox that receives every lead.
	To string
}

// Sender renders leads and hands them to a Mailer.
type Sender struct {
	mailer Mailer
	cfg    Config
}

// NewSender builds an email channel. mailer may be nil, which leaves the
// channel unconfigured.
func NewSender(mailer Mailer, cfg Config) *Sender {
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.To = strings.TrimSpace(cfg.To)
	return &Sender{mailer: mailer, cfg: cfg}
}

func (s *Sender) Name() string { return ChannelName }

// IsConfigured needs a transport plus both addresses.
func (s *Sender) IsConfigured() bool {
	return s != nil && s.mailer != nil && s.cfg.From != "" && s.cfg.To != ""
}

// Send makes a single delivery attempt.
func (s *Sender) Send(ctx context.Context, sub leads.Submission) notify.Result {
	if !s.IsConfigured() {
		return notify.Failed(errors.New("email: not configured"))
	}
	r, err := Render(sub)
	if err != nil {
		return notify.Failed(err)
	}
	err = s.mailer.Send(ctx, Message{
		From:     s.cfg.From,
		FromName: s.cfg.FromName,
		To:       s.cfg.To,
		Subject:  r.Subject,
		Text:     r.Text,
		HTML:     r.HTML,
	})
	if err != nil {
		return notify.Failed(err)
	}
	return notify.Result{Success: true}
}

var _ notify.Channel = (*Sender)(nil)
