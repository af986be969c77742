package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/studio-leads/internal/observability/metrics"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

type recordingNotifier struct {
	mu   sync.Mutex
	subs []Submission
	ctxs []context.Context
}

func (n *recordingNotifier) NotifyLead(ctx context.Context, sub Submission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
	n.ctxs = append(n.ctxs, ctx)
}

func postLead(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.CreateLead(w, req)
	return w
}

func TestCreateLead_QuickAccepted(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &recordingNotifier{}
	handler := NewHandler(repo, notifier, logging.NewNop(), WithMetrics(metrics.NewLeadMetrics(prometheus.NewRegistry())))

	w := postLead(t, handler, map[string]any{
		"id":         "client-chosen",
		"type":       "quick",
		"source":     "hero-form",
		"sourcePage": "/",
		"timestamp":  "2026-10-15T10:00:00Z",
		"name":       "Anna",
		"phone":      "+15551234567",
		"utm_source": "google",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp SubmitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)
	assert.NotEqual(t, "client-chosen", resp.ID)

	require.Len(t, notifier.subs, 1)
	sub := notifier.subs[0]
	assert.Equal(t, resp.ID, sub.ID)
	assert.Equal(t, TypeQuick, sub.Type)
	assert.Equal(t, "Anna", sub.Name)
	assert.Equal(t, "google", sub.UTM.Source)
	assert.Equal(t, "hero-form", sub.Source)
	assert.NoError(t, notifier.ctxs[0].Err())

	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", stored.PhoneE164)
}

func TestCreateLead_ValidationErrors(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &recordingNotifier{}
	handler := NewHandler(repo, notifier, logging.NewNop())

	w := postLead(t, handler, map[string]any{"type": "quick", "name": "Anna"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp SubmitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Errors, FieldPhone)
	assert.Empty(t, notifier.subs)
	assert.Zero(t, repo.Count())
}

func TestCreateLead_UnknownType(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.NewNop())
	w := postLead(t, handler, map[string]any{"type": "newsletter", "name": "Anna", "email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ErrUnknownType.Error())
}

func TestCreateLead_InvalidJSON(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.NewNop())
	w := postLead(t, handler, "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLead_BodyTooLarge(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.NewNop())
	body := `{"type":"quick","name":"Anna","phone":"1234567890","message":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	w := postLead(t, handler, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingRepository struct{}

func (failingRepository) Create(context.Context, Submission) (*Lead, error) {
	return nil, errors.New("boom")
}

func (failingRepository) GetByID(context.Context, string) (*Lead, error) {
	return nil, errors.New("boom")
}

func TestCreateLead_RepositoryError(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := NewHandler(failingRepository{}, notifier, logging.NewNop())

	w := postLead(t, handler, map[string]any{"type": "callback", "name": "Anna", "phone": "1234567890"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Empty(t, notifier.subs)
}

func TestGetLead(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), Submission{Type: TypeCallback, Fields: Fields{Name: "Anna", Phone: "1234567890"}})
	require.NoError(t, err)

	handler := NewHandler(repo, nil, logging.NewNop())
	r := chi.NewRouter()
	r.Get("/api/leads/{leadID}", handler.GetLead)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/"+lead.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Anna"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	failing := chi.NewRouter()
	failing.Get("/api/leads/{leadID}", NewHandler(failingRepository{}, nil, logging.NewNop()).GetLead)
	w = httptest.NewRecorder()
	failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
