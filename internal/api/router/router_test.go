package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	httpmiddleware "github.com/wolfman30/studio-leads/internal/http/middleware"
	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/notify"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

type captureChannel struct {
	name       string
	configured bool
	mu         sync.Mutex
	got        []leads.Submission
}

func (c *captureChannel) Name() string       { return c.name }
func (c *captureChannel) IsConfigured() bool { return c.configured }
func (c *captureChannel) Send(ctx context.Context, sub leads.Submission) notify.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, sub)
	return notify.Result{Success: true}
}

type testEnv struct {
	router   http.Handler
	repo     *leads.InMemoryRepository
	email    *captureChannel
	telegram *captureChannel
}

func newTestRouter(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	logger := logging.NewNop()
	repo := leads.NewInMemoryRepository()
	email := &captureChannel{name: "email", configured: true}
	telegram := &captureChannel{name: "telegram"}
	dispatcher := notify.NewDispatcher([]notify.Channel{email, telegram}, logger)

	cfg := &Config{
		Logger:       logger,
		LeadsHandler: leads.NewHandler(repo, dispatcher, logger),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return &testEnv{router: New(cfg), repo: repo, email: email, telegram: telegram}
}

func postLead(t *testing.T, h http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterReadiness(t *testing.T) {
	env := newTestRouter(t, func(cfg *Config) {
		cfg.ReadinessChecks = map[string]Check{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}
	})

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks["postgres"] != "ok" || resp.Checks["redis"] != "connection refused" {
		t.Errorf("unexpected checks %v", resp.Checks)
	}
}

func TestRouterQuickLeadEmailOnly(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := postLead(t, env.router, map[string]string{
		"type": "quick", "name": "Anna", "phone": "+15551234567", "source": "hero",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var resp leads.SubmitResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.ID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if env.repo.Count() != 1 {
		t.Errorf("expected 1 stored lead, got %d", env.repo.Count())
	}
	if len(env.email.got) != 1 || env.email.got[0].ID != resp.ID {
		t.Errorf("expected email notification for %s, got %+v", resp.ID, env.email.got)
	}
	if len(env.telegram.got) != 0 {
		t.Errorf("unconfigured telegram must not be called")
	}
}

func TestRouterRejectsInvalidLead(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := postLead(t, env.router, map[string]string{"type": "quick", "name": "Anna"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if len(env.email.got) != 0 {
		t.Errorf("invalid leads must not notify")
	}
}

func TestRouterRejectsNonJSON(t *testing.T) {
	env := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewBufferString("name=Anna"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status %d, got %d", http.StatusUnsupportedMediaType, rr.Code)
	}
}

func TestRouterRateLimitsSubmissions(t *testing.T) {
	env := newTestRouter(t, func(cfg *Config) {
		cfg.RateLimiter = httpmiddleware.NewRateLimiter(0.01, 1)
	})
	lead := map[string]string{"type": "callback", "name": "Anna", "phone": "1234567890"}

	if rr := postLead(t, env.router, lead); rr.Code != http.StatusCreated {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}
	if rr := postLead(t, env.router, lead); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rr.Code)
	}
}

func TestRouterLeadLookupNeedsOperator(t *testing.T) {
	env := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leads/abc", nil))
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected lookup to be unrouted without a secret, got %d", rr.Code)
	}

	env = newTestRouter(t, func(cfg *Config) { cfg.OperatorSecret = "secret" })
	created := postLead(t, env.router, map[string]string{"type": "callback", "name": "Anna", "phone": "1234567890"})
	var resp leads.SubmitResponse
	if err := json.NewDecoder(created.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/leads/"+resp.ID, nil)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	claims := jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    httpmiddleware.OperatorIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/leads/"+resp.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}
