// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	WelfareDataPath string
	UploadDir       string
	ResultDir       string
	SessionTTL      time.Duration
	// SimulatePipeline runs the augmentation pipeline in prototype mode:
	// staged progress is played back on fixed delays and the run ends with
	// fixed statistics instead of real processing.
	SimulatePipeline bool
	SimulateStepWait time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	ttlMinutes := getEnvInt("SESSION_TTL_MINUTES", 60)
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		DBPath:           getEnv("DB_PATH", "./data/welfare.db"),
		WelfareDataPath:  getEnv("WELFARE_DATA_PATH", ""),
		UploadDir:        getEnv("UPLOAD_DIR", "./data/uploads"),
		ResultDir:        getEnv("RESULT_DIR", "./data/results"),
		SessionTTL:       time.Duration(ttlMinutes) * time.Minute,
		SimulatePipeline: getEnvBool("SIMULATE_PIPELINE", true),
		SimulateStepWait: 2 * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR cannot be empty")
	}
	if c.ResultDir == "" {
		return fmt.Errorf("RESULT_DIR cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
