package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Mail transport selection
	MailMode string

	// CORS allow-list. Empty means any origin is allowed — acceptable
	// for development, not for production.
	CORSOrigins []string

	// Resend API (mode "api")
	ResendAPIKey string

	// SMTP relay (mode "smtp")
	SMTPHost   string
	SMTPPort   int
	SMTPSecure bool
	SMTPUser   string
	SMTPPass   string

	// Sender address. Falls back to SMTPUser when unset.
	MailFrom string

	// Ethereal test account (mode "ethereal")
	EtherealUser string
	EtherealPass string

	// Upper bound on a single outbound send attempt.
	SendTimeout time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 3001),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Ethereal is the development default: it captures mail instead of
		// delivering it. Production deployments must set MAIL_MODE explicitly.
		MailMode: strings.ToLower(getEnv("MAIL_MODE", "ethereal")),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),

		SMTPHost:   getEnv("SMTP_HOST", ""),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		SMTPSecure: getEnvBool("SMTP_SECURE", false),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
		MailFrom:   getEnv("MAIL_FROM", ""),

		EtherealUser: getEnv("ETHEREAL_USER", ""),
		EtherealPass: getEnv("ETHEREAL_PASS", ""),

		SendTimeout: getEnvDuration("SEND_TIMEOUT", 15*time.Second),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Parse allowed origins from comma-separated environment variable
	originsStr := getEnv("CORS_ORIGIN", "")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	// An unknown mode is a deployment mistake; fail startup rather than
	// answering every /send with a confusing 500.
	switch cfg.MailMode {
	case "api", "smtp", "ethereal":
	default:
		return nil, fmt.Errorf("MAIL_MODE must be one of 'api', 'smtp', or 'ethereal', got: %s", cfg.MailMode)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
