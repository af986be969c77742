package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/studio-leads/cmd/mainconfig"
	"github.com/wolfman30/studio-leads/internal/api/router"
	"github.com/wolfman30/studio-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/studio-leads/internal/config"
	httpmiddleware "github.com/wolfman30/studio-leads/internal/http/middleware"
	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/internal/notify"
	"github.com/wolfman30/studio-leads/internal/observability/metrics"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

const limiterSweep = 5 * time.Minute

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting studio-leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.NotifyChannelTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}
	logger.Info("server stopped")
}

type app struct {
	handler    http.Handler
	dispatcher *notify.Dispatcher
	repo       leads.Repository

	done  chan struct{}
	pool  *pgxpool.Pool
	redis *redis.Client
}

// Close stops background work and releases connections.
func (a *app) Close() {
	close(a.done)
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	registry, metricsHandler := setupMetrics()
	leadMetrics := metrics.NewLeadMetrics(registry)

	a := &app{done: make(chan struct{})}
	checks := map[string]router.Check{}

	a.pool = bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if a.pool != nil {
		checks["postgres"] = a.pool.Ping
	}
	a.repo = bootstrap.BuildLeadRepository(a.pool, logger)

	a.redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	mailer, err := bootstrap.BuildMailer(ctx, cfg, mainconfig.LoadAWSConfig, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.dispatcher = notify.NewDispatcher(
		bootstrap.BuildChannels(mailer, cfg),
		logger,
		notify.WithTimeout(cfg.NotifyChannelTimeout),
		notify.WithMetrics(leadMetrics),
	)
	logger.Info("notification channels ready", "channels", a.dispatcher.Channels())

	leadsHandler := leads.NewHandler(a.repo, a.dispatcher, logger,
		leads.WithValidator(leads.NewValidator(cfg.PhoneDefaultRegion)),
		leads.WithMetrics(leadMetrics),
	)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(a.done, limiterSweep)

	a.handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		OperatorSecret:     cfg.AdminJWTSecret,
		ReadinessChecks:    checks,
		RequestTimeout:     cfg.RequestTimeout,
	})
	return a, nil
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
