// Package config loads the dashboard configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration. Everything is env-driven; the only
// variable the deployment contract requires is LOGLEVEL, the rest have
// sensible defaults.
type Config struct {
	// HTTPPort is the listen port for the HTTP server (HTTP_PORT, default 8080).
	HTTPPort string
	// LogLevel is the slog level parsed from LOGLEVEL (default info).
	LogLevel slog.Level
	// DashboardDir is the directory of the built frontend to serve as an SPA
	// (DASHBOARD_DIR; empty disables static serving).
	DashboardDir string
	// FilterTTL is how long observed filter values stay listed
	// (FILTER_TTL_HOURS, default 24).
	FilterTTL time.Duration
	// WSWriteTimeout bounds each WebSocket frame write (WS_WRITE_TIMEOUT_SECONDS,
	// default 10).
	WSWriteTimeout time.Duration
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LoadFromEnv reads the configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       slog.LevelInfo,
		DashboardDir:   os.Getenv("DASHBOARD_DIR"),
		FilterTTL:      24 * time.Hour,
		WSWriteTimeout: 10 * time.Second,
	}

	if raw := os.Getenv("LOGLEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid LOGLEVEL %q: %w", raw, err)
		}
		cfg.LogLevel = level
	}

	if raw := os.Getenv("FILTER_TTL_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid FILTER_TTL_HOURS %q", raw)
		}
		cfg.FilterTTL = time.Duration(hours) * time.Hour
	}

	if raw := os.Getenv("WS_WRITE_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT_SECONDS %q", raw)
		}
		cfg.WSWriteTimeout = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}
