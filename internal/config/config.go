// Package config provides environment-driven configuration for the graph server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
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
	DatabaseURL     Secret
	Port            string
	ListenHost      string
	MetricsPort     string
	CORSOrigins     []string
	LogLevel        string
	PermissionURL   string
	PermissionToken Secret
	DBMaxConns      int
	QueryLimit      int
	EmbeddingDims   int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		Port:            envOrDefault("PORT", "4000"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort:     envOrDefault("METRICS_PORT", "9091"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		PermissionURL:   envOrDefault("PERMISSION_SERVICE_URL", ""),
		PermissionToken: Secret(envOrDefault("PERMISSION_SERVICE_TOKEN", "")),
	}

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "21"))
	if err != nil || maxConns < 1 || maxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 1 and 200")
	}
	cfg.DBMaxConns = maxConns

	queryLimit, err := strconv.Atoi(envOrDefault("QUERY_LIMIT", "250"))
	if err != nil || queryLimit < 1 || queryLimit > 10000 {
		return nil, fmt.Errorf("QUERY_LIMIT must be an integer between 1 and 10000")
	}
	cfg.QueryLimit = queryLimit

	embeddingDims, err := strconv.Atoi(envOrDefault("EMBEDDING_DIMENSIONS", "1024"))
	if err != nil || embeddingDims < 1 || embeddingDims > 4096 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be an integer between 1 and 4096")
	}
	cfg.EmbeddingDims = embeddingDims

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

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
