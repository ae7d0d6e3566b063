/*
Package configs loads and parses the application's configuration settings.

All values come from environment variables, with development defaults where a
missing value is safe and hard errors where it is not.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultHistoryCapacity is the bounded message log size used when
// HISTORY_CAPACITY is unset.
const DefaultHistoryCapacity = 1000

// AppConfig contains every configuration parameter the application needs.
type AppConfig struct {
	// General Server Settings
	Environment     string
	Port            int
	HistoryCapacity int

	// Security Settings
	AllowedOrigins []string

	// Database Settings
	DatabaseDSN string
}

// LoadConfig reads the application configuration from environment variables,
// applying defaults and validating types and ranges.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	capacityStr := os.Getenv("HISTORY_CAPACITY")
	if capacityStr == "" {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	} else {
		capacity, err := strconv.Atoi(capacityStr)
		if err != nil {
			return nil, fmt.Errorf("invalid HISTORY_CAPACITY environment variable: %w", err)
		}
		if capacity < 1 {
			return nil, fmt.Errorf("HISTORY_CAPACITY must be at least 1, got %d", capacity)
		}
		cfg.HistoryCapacity = capacity
	}

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Database Settings ---
	// An empty DSN in development selects the in-memory account repository.
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" && cfg.Environment != "development" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required in %s environment", cfg.Environment)
	}

	return cfg, nil
}
