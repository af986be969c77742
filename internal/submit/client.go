package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// FailureMessage is what visitors see for any failed submission.
const FailureMessage = "We could not send your request. Please try again."

const defaultUserAgent = "studio-leads-client/1.0"

// Result is the outcome of one submission attempt. Err carries technical
// detail for logs and is never meant for the visitor.
type Result struct {
	OK         bool
	ID         string
	StatusCode int
	Message    string
	Err        error
}

// Config controls how the Client behaves.
type Config struct {
	Endpoint    string
	Source      string
	SourcePage  string
	Attribution *Attribution
	HTTPClient  *http.Client
	Timeout     time.Duration
	Logger      *logging.Logger
	Now         func() time.Time
}

// Client posts lead submissions to the lead endpoint.
type Client struct {
	endpoint    string
	source      string
	sourcePage  string
	attribution *Attribution
	httpClient  *http.Client
	logger      *logging.Logger
	now         func() time.Time
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("submit: endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		endpoint:    endpoint,
		source:      cfg.Source,
		sourcePage:  cfg.SourcePage,
		attribution: cfg.Attribution,
		httpClient:  httpClient,
		logger:      logger,
		now:         now,
	}, nil
}

// ForSource returns a client that tags submissions with another form
// placement. Transport and attribution are shared.
func (c *Client) ForSource(source, sourcePage string) *Client {
	clone := *c
	clone.source = source
	if sourcePage != "" {
		clone.sourcePage = sourcePage
	}
	return &clone
}

// Build assembles the submission that Submit would send.
func (c *Client) Build(t leads.Type, fields leads.Fields) leads.Submission {
	return leads.Submission{
		Type:       t,
		Source:     c.source,
		SourcePage: c.sourcePage,
		Timestamp:  c.now().UTC(),
		Fields:     fields,
		UTM:        c.attribution.UTM(),
	}
}

// Submit sends one POST. Transport errors and non-2xx responses are both
// failures; there is no automatic retry.
func (c *Client) Submit(ctx context.Context, t leads.Type, fields leads.Fields) Result {
	sub := c.Build(t, fields)
	body, err := json.Marshal(sub)
	if err != nil {
		return c.fail(0, fmt.Errorf("submit: marshal: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(0, fmt.Errorf("submit: build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.fail(0, fmt.Errorf("submit: http error: %w", err))
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(resp.StatusCode, fmt.Errorf("submit: endpoint returned status %d", resp.StatusCode))
	}

	var decoded struct {
		ID string `json:"id"`
	}
	// Any 2xx is a success even when the body is not what we expect.
	_ = json.Unmarshal(data, &decoded)
	c.logger.Info("lead submitted", "type", sub.Type, "lead_id", decoded.ID, "status", resp.StatusCode)
	return Result{OK: true, ID: decoded.ID, StatusCode: resp.StatusCode}
}

func (c *Client) fail(status int, err error) Result {
	c.logger.Warn("lead submission failed", "status", status, "error", err)
	return Result{StatusCode: status, Message: FailureMessage, Err: err}
}
