package config

import (
	"os"
	"strconv"
	"time"
)

// Item source modes for bill construction. In metadata mode the item list
// comes straight from the webhook notes; in token mode it is recovered from
// the pending-token registry by the token number echoed in the notes.
const (
	ItemSourceMetadata = "metadata"
	ItemSourceToken    = "token"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Webhook intake
	WebhookSecret  string
	MaxWebhookBody int64

	// Print client auth
	PrintAPIKey     string
	PrintAPIKeyHash string // bcrypt hash; takes precedence over PrintAPIKey

	// Pipeline
	ItemSource     string // metadata | token
	BillRetention  time.Duration
	TokenRetention time.Duration
	ReaperInterval time.Duration // 0 disables the background reaper

	// Payment gateway
	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	Currency         string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Order idempotency cache
	OrderCacheTTL time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		MaxWebhookBody: int64(getEnvInt("MAX_WEBHOOK_BODY", 65536)),

		PrintAPIKey:     getEnv("PRINT_API_KEY", ""),
		PrintAPIKeyHash: getEnv("PRINT_API_KEY_HASH", ""),

		ItemSource:     getEnv("ITEM_SOURCE", ItemSourceMetadata),
		BillRetention:  getEnvDuration("BILL_RETENTION", 2*time.Hour),
		TokenRetention: getEnvDuration("TOKEN_RETENTION", 24*time.Hour),
		ReaperInterval: getEnvDuration("REAPER_INTERVAL", 5*time.Minute),

		GatewayBaseURL:   getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
		GatewayKeyID:     getEnv("GATEWAY_KEY_ID", ""),
		GatewayKeySecret: getEnv("GATEWAY_KEY_SECRET", ""),
		Currency:         getEnv("CURRENCY", "INR"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		OrderCacheTTL: getEnvDuration("ORDER_CACHE_TTL", 15*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
