package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/studio-leads/internal/http/middleware"
	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter throttles lead submissions per client. Nil disables it.
	RateLimiter *httpmiddleware.RateLimiter

	// OperatorSecret enables GET /api/leads/{leadID}. Empty leaves it unrouted.
	OperatorSecret string

	// ReadinessChecks back GET /ready, keyed by dependency name.
	ReadinessChecks map[string]Check

	RequestTimeout time.Duration
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	r.Get("/ready", readiness(cfg.ReadinessChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/leads", func(api chi.Router) {
		submit := api.With(middleware.AllowContentType("application/json"))
		if cfg.RateLimiter != nil {
			submit = submit.With(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		submit.Post("/", cfg.LeadsHandler.CreateLead)

		if cfg.OperatorSecret != "" {
			api.With(httpmiddleware.OperatorJWT(cfg.OperatorSecret)).Get("/{leadID}", cfg.LeadsHandler.GetLead)
		}
	})

	return r
}
