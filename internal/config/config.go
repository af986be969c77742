package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	RequestTimeout     time.Duration

	// AdminJWTSecret signs operator tokens for lead lookups.
	AdminJWTSecret string

	// Notification dispatch
	NotifyChannelTimeout time.Duration

	// Email channel
	EmailProvider     string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	SMTPSSL           bool
	EmailFrom         string
	EmailFromName     string
	NotificationEmail string
	SendGridAPIKey    string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Telegram channel
	TelegramBotToken   string
	TelegramChatID     string
	TelegramAPIBaseURL string

	// Validation
	PhoneDefaultRegion string

	// Form client (cmd/leadform)
	DraftDebounce time.Duration
	DraftDir      string
	DraftTTL      time.Duration
	LeadEndpoint  string
	LeadSource    string
	LeadPage      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		RequestTimeout:     getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		NotifyChannelTimeout: getEnvAsDuration("NOTIFY_CHANNEL_TIMEOUT", 10*time.Second),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "smtp"))),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPSSL:           getEnvAsBool("SMTP_SSL", false),
		EmailFrom:         getEnv("EMAIL_FROM", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Studio Leads"),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:     getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),

		PhoneDefaultRegion: strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),

		DraftDebounce: getEnvAsDuration("DRAFT_DEBOUNCE", 500*time.Millisecond),
		DraftDir:      getEnv("DRAFT_DIR", ".drafts"),
		DraftTTL:      getEnvAsDuration("DRAFT_TTL", 0),
		LeadEndpoint:  getEnv("LEAD_ENDPOINT", "http://localhost:8080/api/leads"),
		LeadSource:    getEnv("LEAD_SOURCE", "leadform-cli"),
		LeadPage:      getEnv("LEAD_PAGE", "/"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
