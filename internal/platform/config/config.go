// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Session     SessionConfig
	Upload      UploadConfig
	Log         LogConfig
	CatalogPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL disables
// the analytics cache and keeps sessions in memory.
type CacheConfig struct {
	URL          string
	AnalyticsTTL time.Duration
}

// SessionConfig holds bearer session settings.
type SessionConfig struct {
	TTL time.Duration
}

// UploadConfig bounds document uploads.
type UploadConfig struct {
	MaxBytes      int64
	MaxCandidates int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level    string
	Format   string
	Requests bool
}

// SlogLevel maps Level to a slog level. Unknown values mean info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("LEARN_SERVER_PORT", 8080),
			Host:            envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: envDuration("LEARN_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL:          envStr("LEARN_CACHE_URL", ""),
			AnalyticsTTL: envDuration("LEARN_CACHE_ANALYTICS_TTL", 10*time.Minute),
		},
		Session: SessionConfig{
			TTL: envDuration("LEARN_SESSION_TTL", 24*time.Hour),
		},
		Upload: UploadConfig{
			MaxBytes:      int64(envInt("LEARN_UPLOAD_MAX_BYTES", 10<<20)),
			MaxCandidates: envInt("LEARN_UPLOAD_MAX_CANDIDATES", 50),
		},
		Log: LogConfig{
			Level:    envStr("LEARN_LOG_LEVEL", "info"),
			Format:   envStr("LEARN_LOG_FORMAT", "json"),
			Requests: envBool("LEARN_LOG_REQUESTS", true),
		},
		CatalogPath: envStr("LEARN_CATALOG_PATH", "./catalogs"),
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.MinConns < 0 || c.Database.MaxConns < 1 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database pool bounds invalid: min %d, max %d", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("LEARN_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("LEARN_UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// UsesDatabase reports whether a PostgreSQL URL is configured.
func (c *Config) UsesDatabase() bool {
	return c.Database.URL != ""
}

// UsesCache reports whether a cache URL is configured.
func (c *Config) UsesCache() bool {
	return c.Cache.URL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
