package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// CRM ledger
	LedgerBaseURL   string
	HistoryPageSize int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxConcurrency  int
	LedgerRateLimit float64 // requests per second, 0 disables
	LedgerRateBurst int

	// Transfer in-flight guard
	SubmitGuardTTL time.Duration
	RedisURL       string // empty keeps the guard in process memory

	// Presentation
	Locale            string
	TimeZone          string
	AvatarTransferURL string
	AvatarBusinessURL string

	// HTTP surface
	CORSAllowedOrigins []string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LedgerBaseURL:   strings.TrimRight(getEnv("LEDGER_BASE_URL", "https://crm.xrb.cz"), "/"),
		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 200),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:      getEnvInt("MAX_RETRIES", 2),
		InitialBackoff:  getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 50),
		LedgerRateLimit: getEnvFloat("LEDGER_RATE_LIMIT", 20),
		LedgerRateBurst: getEnvInt("LEDGER_RATE_BURST", 40),

		SubmitGuardTTL: getEnvDuration("SUBMIT_GUARD_TTL", 30*time.Second),
		RedisURL:       getEnv("REDIS_URL", ""),

		Locale:            getEnv("LOCALE", "cs"),
		TimeZone:          getEnv("TIME_ZONE", "Europe/Prague"),
		AvatarTransferURL: getEnv("AVATAR_TRANSFER_URL", "https://crm.xrb.cz/assets/img/wallet/RB.avatar.jpg"),
		AvatarBusinessURL: getEnv("AVATAR_BUSINESS_URL", "https://crm.xrb.cz/assets/img/wallet/realbarber.png"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
