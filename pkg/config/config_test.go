package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Source.SheetURL != DefaultSheetURL {
		t.Errorf("Expected SheetURL to default to the published sheet, got %s", cfg.Source.SheetURL)
	}

	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected CacheTTL to be 5m, got %v", cfg.CacheTTL)
	}

	if cfg.Source.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", cfg.Source.MaxRetries)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("SHEET_CSV_URL", "https://example.com/data.csv")
	os.Setenv("CACHE_TTL", "90s")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("SHEET_CSV_URL")
		os.Unsetenv("CACHE_TTL")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Source.SheetURL != "https://example.com/data.csv" {
		t.Errorf("Expected custom SheetURL, got %s", cfg.Source.SheetURL)
	}

	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("Expected CacheTTL to be 90s, got %v", cfg.CacheTTL)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidSheetURL(t *testing.T) {
	os.Setenv("SHEET_CSV_URL", "not-a-url")
	defer os.Unsetenv("SHEET_CSV_URL")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when SHEET_CSV_URL is not an http(s) URL, got nil")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "invalid")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2h")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsDurationInvalid(t *testing.T) {
	os.Setenv("TEST_DURATION", "soon")
	defer os.Unsetenv("TEST_DURATION")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	if duration != time.Hour {
		t.Errorf("Expected fallback to 1h, got %v", duration)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	os.Setenv("TEST_FLOAT", "2.5")
	defer os.Unsetenv("TEST_FLOAT")

	value := getEnvAsFloat("TEST_FLOAT", 1.0)
	if value != 2.5 {
		t.Errorf("Expected value to be 2.5, got %f", value)
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	os.Setenv("TEST_SLICE", "https://a.example, https://b.example")
	defer os.Unsetenv("TEST_SLICE")

	value := getEnvAsSlice("TEST_SLICE", []string{"*"})
	if len(value) != 2 || value[0] != "https://a.example" || value[1] != "https://b.example" {
		t.Errorf("Unexpected slice value: %v", value)
	}
}
