// Package telegram delivers lead notifications to a staff chat through the
// Bot API sendMessage method.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/notify"
)

// ChannelName identifies Telegram in dispatch reports.
const ChannelName = "telegram"

// DefaultBaseURL is the public Bot API host.
const DefaultBaseURL = "https://api.telegram.org"

// APIError is a non-ok Bot API reply.
type APIError struct {
	StatusCode  int
	Code        int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram: api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("telegram: api error %d: %s", e.Code, e.Description)
}

// Config holds bot credentials and the destination chat.
type Config struct {
	Token      string
	ChatID     string
	BaseURL    string
	HTTPClient *http.Client
}

// Sender posts leads to one chat.
type Sender struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// NewSender builds the Telegram channel. An empty token or chat id leaves it
// unconfigured.
func NewSender(cfg Config) *Sender {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Sender{
		token:      strings.TrimSpace(cfg.Token),
		chatID:     strings.TrimSpace(cfg.ChatID),
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (s *Sender) Name() string { return ChannelName }

func (s *Sender) IsConfigured() bool {
	return s != nil && s.token != "" && s.chatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send makes a single sendMessage call.
func (s *Sender) Send(ctx context.Context, sub leads.Submission) notify.Result {
	if !s.IsConfigured() {
		return notify.Failed(errors.New("telegram: not configured"))
	}
	text, err := Render(sub)
	if err != nil {
		return notify.Failed(err)
	}
	if err := s.sendMessage(ctx, text); err != nil {
		return notify.Failed(err)
	}
	return notify.Result{Success: true}
}

func (s *Sender) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                s.chatID,
		Text:                  text,
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	endpoint := s.baseURL + "/bot" + s.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: http error: %w", redact(err))
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var parsed apiResponse
	decodeErr := json.Unmarshal(data, &parsed)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && decodeErr == nil && parsed.OK {
		return nil
	}
	return &APIError{StatusCode: resp.StatusCode, Code: parsed.ErrorCode, Description: parsed.Description}
}

// redact drops the request URL, which carries the bot token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

var _ notify.Channel = (*Sender)(nil)
