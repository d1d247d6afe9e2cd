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
	Port        string
	FrontendURL string
	DBPath      string

	// APIKey is the server secret checked against the x-api-key header.
	APIKey string

	// GeminiAPIKey authenticates against the Gemini API. When empty the
	// server starts with AI disabled and every model call takes the
	// fallback path.
	GeminiAPIKey string
	GeminiModel  string
	ModelTimeout time.Duration

	CallbackURL     string
	CallbackTimeout time.Duration

	SessionTTL    time.Duration
	EngagementLog EngagementLogConfig
}

// EngagementLogConfig controls NDJSON engagement logging.
type EngagementLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("ENGAGEMENT_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	geminiKey := getEnv("GEMINI_API_KEY", "")
	if geminiKey == "" {
		geminiKey = getEnv("GOOGLE_API_KEY", "")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/honeypot.db"),
		APIKey:          getEnv("API_KEY", "secure-honey-pot-key-123"),
		GeminiAPIKey:    geminiKey,
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		ModelTimeout:    getEnvDuration("MODEL_TIMEOUT", 30*time.Second),
		CallbackURL:     getEnv("CALLBACK_URL", "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"),
		CallbackTimeout: getEnvDuration("CALLBACK_TIMEOUT", 10*time.Second),
		SessionTTL:      getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		EngagementLog: EngagementLogConfig{
			Enabled:       getEnvBool("ENGAGEMENT_LOG_ENABLED", true),
			Dir:           getEnv("ENGAGEMENT_LOG_DIR", "./data/logs/engagements"),
			GlobalEnabled: getEnvBool("ENGAGEMENT_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("ENGAGEMENT_LOG_GLOBAL_PATH", "./data/logs/engagements/all.ndjson"),
			QueueSize:     queueSize,
		},
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
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY cannot be empty")
	}
	if c.CallbackURL == "" {
		return fmt.Errorf("CALLBACK_URL cannot be empty")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("MODEL_TIMEOUT must be > 0")
	}
	if c.CallbackTimeout <= 0 {
		return fmt.Errorf("CALLBACK_TIMEOUT must be > 0")
	}
	if c.EngagementLog.Dir == "" {
		return fmt.Errorf("ENGAGEMENT_LOG_DIR cannot be empty")
	}
	if c.EngagementLog.GlobalPath == "" {
		return fmt.Errorf("ENGAGEMENT_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.EngagementLog.QueueSize <= 0 {
		return fmt.Errorf("ENGAGEMENT_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// AIEnabled returns true if a Gemini API key is configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
