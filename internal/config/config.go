// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the ingestion backend.
type Config struct {
	Port          string
	Debug         bool
	DatabaseDSN   string
	RedisURL      string
	GeminiAPIKey  string
	GeminiModel   string
	WebhookSecret string

	IdentityBaseURL string // company-identity API, queried by email domain
	LogoProbeURL    string // logo-lookup service
	SearchPingURL   string // search-engine notification endpoint
	SiteBaseURL     string // canonical public URL prefix for job pages

	IngestIntervalMin int           // how often the batch worker fires
	PostDelay         time.Duration // pause between posts within a batch
	ExternalTimeout   time.Duration // per-call budget for third-party APIs
}

// IdentityConfigured reports whether an identity API endpoint is set. Without
// one every lookup fails as a transport error and the fail-open policy admits
// every company, so callers should warn loudly at startup.
func (c *Config) IdentityConfigured() bool {
	return c.IdentityBaseURL != ""
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	interval := 30
	if s := os.Getenv("INGEST_INTERVAL_MIN"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("INGEST_INTERVAL_MIN must be a positive integer, got %q", s)
		}
		interval = v
	}

	siteURL := os.Getenv("SITE_BASE_URL")
	if siteURL == "" {
		siteURL = "https://remotehunt.io"
	}

	return &Config{
		Port:              port,
		Debug:             os.Getenv("APP_DEBUG") == "true",
		DatabaseDSN:       dsn,
		RedisURL:          os.Getenv("REDIS_URL"),
		GeminiAPIKey:      apiKey,
		GeminiModel:       model,
		WebhookSecret:     secret,
		IdentityBaseURL:   os.Getenv("IDENTITY_API_URL"),
		LogoProbeURL:      os.Getenv("LOGO_PROBE_URL"),
		SearchPingURL:     os.Getenv("SEARCH_PING_URL"),
		SiteBaseURL:       siteURL,
		IngestIntervalMin: interval,
		PostDelay:         300 * time.Millisecond,
		ExternalTimeout:   15 * time.Second,
	}, nil
}
