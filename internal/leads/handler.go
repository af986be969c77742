package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/studio-leads/internal/observability/metrics"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Notifier fans an accepted lead out to staff channels. Implementations
// report per-channel outcomes through their own logs; the endpoint never
// waits on or reacts to them beyond the call returning.
type Notifier interface {
	NotifyLead(ctx context.Context, sub Submission)
}

// Handler handles HTTP requests for leads
type Handler struct {
	repo      Repository
	validator *Validator
	notifier  Notifier
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithValidator overrides the default schemas (e.g. another phone region).
func WithValidator(v *Validator) HandlerOption {
	return func(h *Handler) {
		if v != nil {
			h.validator = v
		}
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(m *metrics.LeadMetrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates a new leads handler. notifier may be nil.
func NewHandler(repo Repository, notifier Notifier, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		repo:      repo,
		validator: defaultValidator,
		notifier:  notifier,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SubmitResponse is the body returned by CreateLead.
type SubmitResponse struct {
	Success bool        `json:"success"`
	ID      string      `json:"id,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// CreateLead handles POST /api/leads requests
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.Warn("failed to decode lead", "error", err)
		h.metrics.ObserveSubmission("", "invalid")
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "invalid request body"})
		return
	}

	valid, err := h.validator.ValidateSubmission(sub)
	if err != nil {
		h.metrics.ObserveSubmission(string(sub.Type), "invalid")
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.logger.Info("lead rejected", "type", sub.Type, "fields", len(verr.Fields))
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: "validation failed", Errors: verr.Fields})
			return
		}
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Error: err.Error()})
		return
	}
	// Ids are assigned here, never trusted from the client.
	valid = valid.WithID("")

	lead, err := h.repo.Create(r.Context(), valid)
	if err != nil {
		h.logger.Error("failed to create lead", "error", err, "type", valid.Type)
		h.metrics.ObserveSubmission(string(valid.Type), "error")
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Error: "could not accept the request"})
		return
	}
	h.metrics.ObserveSubmission(string(lead.Type), "accepted")
	h.logger.Info("lead accepted", "lead_id", lead.ID, "type", lead.Type, "source", lead.Source)

	if h.notifier != nil {
		// The visitor hanging up must not abort delivery to staff.
		h.notifier.NotifyLead(context.WithoutCancel(r.Context()), lead.Submission)
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{Success: true, ID: lead.ID})
}

// GetLead handles GET /api/leads/{leadID} for operators.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "leadID")
	if id == "" {
		http.Error(w, "missing lead id", http.StatusBadRequest)
		return
	}
	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load lead", "error", err, "lead_id", id)
		http.Error(w, "failed to load lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
