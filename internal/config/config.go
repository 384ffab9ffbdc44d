// Package config provides environment-driven configuration for the conceptmap server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	DBMaxConns  int32
	Port        string
	ListenHost  string
	MetricsPort string
	CORSOrigins []string
	LogLevel    string

	// Content provider (RapidAPI-style medium proxy).
	ContentAPIURL  string
	ContentAPIHost string
	ContentAPIKey  Secret

	// OpenAI-compatible chat completion endpoint used for extraction.
	ExtractionAPIURL string
	ExtractionAPIKey Secret
	ExtractionModel  string

	UpstreamTimeout    time.Duration
	UpstreamMaxRetries uint64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      Secret(envOrDefault("DATABASE_URL", "")),
		Port:             envOrDefault("PORT", "3030"),
		ListenHost:       envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort:      envOrDefault("METRICS_PORT", "9091"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		ContentAPIURL:    envOrDefault("CONTENT_API_URL", "https://medium2.p.rapidapi.com"),
		ContentAPIHost:   envOrDefault("CONTENT_API_HOST", "medium2.p.rapidapi.com"),
		ContentAPIKey:    Secret(envOrDefault("CONTENT_API_KEY", "")),
		ExtractionAPIURL: envOrDefault("EXTRACTION_API_URL", "https://api.openai.com"),
		ExtractionAPIKey: Secret(envOrDefault("EXTRACTION_API_KEY", "")),
		ExtractionModel:  envOrDefault("EXTRACTION_MODEL", "gpt-3.5-turbo"),
	}

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "21"))
	if err != nil || maxConns < 2 || maxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 200")
	}
	cfg.DBMaxConns = int32(maxConns) //nolint:gosec // bounded above.

	timeoutSecs, err := strconv.Atoi(envOrDefault("UPSTREAM_TIMEOUT_SECONDS", "60"))
	if err != nil || timeoutSecs < 1 || timeoutSecs > 600 {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be an integer between 1 and 600")
	}
	cfg.UpstreamTimeout = time.Duration(timeoutSecs) * time.Second

	retries, err := strconv.Atoi(envOrDefault("UPSTREAM_MAX_RETRIES", "2"))
	if err != nil || retries < 0 || retries > 10 {
		return nil, fmt.Errorf("UPSTREAM_MAX_RETRIES must be an integer between 0 and 10")
	}
	cfg.UpstreamMaxRetries = uint64(retries)

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the Prometheus listener address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
