package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSheetURL is the published Google Sheets CSV export the dashboard
// reads when SHEET_CSV_URL is not set.
const DefaultSheetURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTwdoXryOVIFA7r2xx0M7utizRKLS009t0XRleTls6bGXI0xaP78oiCzAS0Q08B2O7SZmi9OaD0_HgD/pub?output=csv"

// Config holds all configuration for the application
// SSOT: all environment variables are read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Source
	Source SourceConfig

	// Cache
	CacheTTL time.Duration

	// Scheduler
	RefreshSchedule string // cron expression (with seconds)

	// CORS
	CORSAllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string
}

// SourceConfig holds the remote sheet source configuration
type SourceConfig struct {
	SheetURL    string
	HTTPTimeout time.Duration
	MaxRetries  int
	RatePerSec  float64 // outbound request budget toward the sheet host
}

// Load reads configuration from environment variables
// SSOT: this is the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Source
		Source: SourceConfig{
			SheetURL:    getEnv("SHEET_CSV_URL", DefaultSheetURL),
			HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", "10s"),
			MaxRetries:  getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RatePerSec:  getEnvAsFloat("FETCH_RATE_LIMIT", 1.0),
		},

		// Cache
		CacheTTL: getEnvAsDuration("CACHE_TTL", "5m"),

		// Scheduler: every 5 minutes, aligned with the cache window
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */5 * * * *"),

		// CORS
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Source.SheetURL == "" {
		return fmt.Errorf("SHEET_CSV_URL is required")
	}

	if !strings.HasPrefix(c.Source.SheetURL, "http://") && !strings.HasPrefix(c.Source.SheetURL, "https://") {
		return fmt.Errorf("SHEET_CSV_URL must be an http(s) URL")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.Source.MaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	if len(out) == 0 {
		return defaultValue
	}

	return out
}
