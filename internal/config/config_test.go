package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "EMAIL_PROVIDER", "SMTP_PORT", "NOTIFY_CHANNEL_TIMEOUT", "DRAFT_DEBOUNCE", "CORS_ALLOWED_ORIGINS", "TELEGRAM_API_BASE_URL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.EmailProvider != "smtp" {
		t.Fatalf("expected smtp provider by default, got %s", cfg.EmailProvider)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("expected default smtp port, got %d", cfg.SMTPPort)
	}
	if cfg.NotifyChannelTimeout != 10*time.Second {
		t.Fatalf("expected default channel timeout, got %s", cfg.NotifyChannelTimeout)
	}
	if cfg.DraftDebounce != 500*time.Millisecond {
		t.Fatalf("expected default draft debounce, got %s", cfg.DraftDebounce)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.TelegramAPIBaseURL != "https://api.telegram.org" {
		t.Fatalf("unexpected telegram base url %s", cfg.TelegramAPIBaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("EMAIL_PROVIDER", " SendGrid ")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_SSL", "true")
	t.Setenv("NOTIFY_CHANNEL_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com, ,https://www.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("PHONE_DEFAULT_REGION", "ru")
	t.Setenv("DRAFT_DEBOUNCE", "not-a-duration")
	cfg := Load()
	if cfg.Port != "9090" || cfg.Env != "production" {
		t.Fatalf("expected overrides, got port=%s env=%s", cfg.Port, cfg.Env)
	}
	if cfg.EmailProvider != "sendgrid" {
		t.Fatalf("expected normalized provider, got %q", cfg.EmailProvider)
	}
	if cfg.SMTPPort != 465 || !cfg.SMTPSSL {
		t.Fatalf("expected smtp overrides, got port=%d ssl=%v", cfg.SMTPPort, cfg.SMTPSSL)
	}
	if cfg.NotifyChannelTimeout != 3*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.NotifyChannelTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://www.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitRPS)
	}
	if cfg.TelegramChatID != "-100123" {
		t.Fatalf("expected chat id override, got %s", cfg.TelegramChatID)
	}
	if cfg.PhoneDefaultRegion != "RU" {
		t.Fatalf("expected upper-cased region, got %s", cfg.PhoneDefaultRegion)
	}
	if cfg.DraftDebounce != 500*time.Millisecond {
		t.Fatalf("invalid duration should fall back to default, got %s", cfg.DraftDebounce)
	}
}
