// Command leadform is a terminal lead form. It autosaves drafts, captures UTM
// attribution from a landing URL and posts the lead to the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wolfman30/studio-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/studio-leads/internal/config"
	"github.com/wolfman30/studio-leads/internal/drafts"
	"github.com/wolfman30/studio-leads/internal/leads"
	"github.com/wolfman30/studio-leads/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	var opts options
	flag.StringVar(&opts.formType, "type", string(leads.TypeQuick), "form type: quick, brief or callback")
	flag.StringVar(&opts.landing, "landing", "", "landing URL carrying utm_* parameters")
	flag.StringVar(&opts.source, "source", cfg.LeadSource, "form placement tag")
	flag.StringVar(&opts.page, "page", cfg.LeadPage, "page the form is shown on")
	flag.StringVar(&cfg.LeadEndpoint, "endpoint", cfg.LeadEndpoint, "lead endpoint URL")
	flag.Parse()

	logger := logging.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "leadform:", err)
		os.Exit(1)
	}
	defer closeStorage()

	if err := run(ctx, cfg, opts, storage, os.Stdin, os.Stdout, logger); err != nil {
		fmt.Fprintln(os.Stderr, "leadform:", err)
		os.Exit(1)
	}
}

// buildStorage prefers Redis so drafts follow the visitor across machines and
// falls back to files under DRAFT_DIR.
func buildStorage(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (drafts.Storage, func(), error) {
	if client := bootstrap.BuildRedisClient(ctx, cfg, logger, true); client != nil {
		return drafts.NewRedisStorage(client, "leadform:", cfg.DraftTTL), func() { _ = client.Close() }, nil
	}
	fs, err := drafts.NewFileStorage(cfg.DraftDir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {}, nil
}
