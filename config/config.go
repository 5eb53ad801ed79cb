package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"stockDashboard/internal/adapters/logger" // Import the logger package for LogLevel
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"
)

// DefaultDataCSVPath is the price file shipped with the dashboard.
const DefaultDataCSVPath = "./data/15 Years Stock Data of NVDA AAPL MSFT GOOGL and AMZN.csv"

// Config holds all application configuration.
type Config struct {
	// Data
	DataCSVPath string

	// Snapshot cache
	DBPath               string
	SnapshotCacheEnabled bool

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter

	// HTTP
	HTTPHost string
	HTTPPort int

	// Dashboard
	RSIEnabled            bool    // compute RSI 14 instead of reporting it as unsupported
	DefaultPriceThreshold float64 // initial threshold marker
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Data
	cfg.DataCSVPath = getEnv("DATA_CSV_PATH", DefaultDataCSVPath)
	if strings.TrimSpace(cfg.DataCSVPath) == "" {
		errs = append(errs, "DATA_CSV_PATH must be set")
	}

	// Snapshot cache
	cfg.SnapshotCacheEnabled = getEnvAsBool("SNAPSHOT_CACHE_ENABLED", true)
	cfg.DBPath = getEnv("DB_PATH", "./data/price_cache.db")
	if cfg.SnapshotCacheEnabled && cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set when SNAPSHOT_CACHE_ENABLED is true")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// HTTP
	cfg.HTTPHost = getEnv("HTTP_HOST", "127.0.0.1")
	cfg.HTTPPort, err = getEnvAsIntRequired("HTTP_PORT", 8080)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_PORT: %v", err))
	} else if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, "HTTP_PORT must be between 0 and 65535")
	}

	// Dashboard
	cfg.RSIEnabled = getEnvAsBool("RSI_ENABLED", false)
	cfg.DefaultPriceThreshold, err = getEnvAsFloatRequired("DEFAULT_PRICE_THRESHOLD", domain.DefaultPriceThreshold)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_PRICE_THRESHOLD: %v", err))
	} else if cfg.DefaultPriceThreshold < 0 {
		errs = append(errs, "DEFAULT_PRICE_THRESHOLD cannot be negative")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s: %w", strings.Join(errs, "; "), ports.ErrConfigurationError)
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
