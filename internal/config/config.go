// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for the databases (always absolute)
	IrisAPIURL    string // Upstream metrics API endpoint
	IrisAPIToken  string // Bearer token for the upstream metrics API
	OpenAIAPIKey  string // API key for the chart-spec translator (optional)
	OpenAIModel   string
	LogLevel      string
	Port          int
	DevMode       bool
	CacheTTL      time.Duration // How long fetched documents stay cached
	AuditRetainN  int           // How many audit entries Recent() returns by default
	WriteAuditLog bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check FINBOARD_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path and ensure the directory exists
	dataDir := getEnv("FINBOARD_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("PORT", 4000),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		IrisAPIURL:    getEnv("IRIS_API_URL", "https://api.irisfinance.co/metrics"),
		IrisAPIToken:  getEnv("IRIS_API_TOKEN", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
		AuditRetainN:  getEnvAsInt("AUDIT_RECENT_LIMIT", 50),
		WriteAuditLog: getEnvAsBool("AUDIT_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}

	// Note: IRIS_API_TOKEN is intentionally not validated here. The upstream
	// client reports a missing token as a typed error at fetch time so callers
	// can distinguish "no credentials" from "fetch failed".
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
