package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Postgres (cache + rate-limit stores)
	DatabaseURL string

	// Azure Blob archival of run output (optional)
	StorageAccount   string
	StorageContainer string

	// Collaborator credentials
	ApifyToken    string
	YouTubeAPIKey string
	GeminiAPIKey  string
	GeminiModel   string

	// Pipeline tuning
	MinFollowers          int
	FallbackScore         int
	NeutralScore          int
	ScoringBatchSize      int
	ExtractionConcurrency int
	MinDistinctCreators   int
	CacheTTL              time.Duration
	RateLimitPerHour      int
	RateLimitWindow       time.Duration
	DefaultNiche          string

	// Curated fallback creators, loaded from YAML when set
	FallbackCreatorsFile string

	// Scheduled cache refresh + digest notifications
	RefreshSchedule   string // "daily" or "weekly"
	WebhookURL        string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "discovery-runs"),

		ApifyToken:    getEnv("APIFY_TOKEN", ""),
		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),

		MinFollowers:          getIntEnv("MIN_FOLLOWERS", 10000),
		FallbackScore:         getIntEnv("FALLBACK_SCORE", 85),
		NeutralScore:          getIntEnv("NEUTRAL_SCORE", 75),
		ScoringBatchSize:      getIntEnv("SCORING_BATCH_SIZE", 10),
		ExtractionConcurrency: getIntEnv("EXTRACTION_CONCURRENCY", 5),
		MinDistinctCreators:   getIntEnv("MIN_DISTINCT_CREATORS", 2),
		CacheTTL:              time.Duration(getIntEnv("CACHE_TTL_DAYS", 7)) * 24 * time.Hour,
		RateLimitPerHour:      getIntEnv("RATE_LIMIT_PER_HOUR", 10),
		RateLimitWindow:       time.Hour,
		DefaultNiche:          getEnv("DEFAULT_NICHE", "fitness"),

		FallbackCreatorsFile: getEnv("FALLBACK_CREATORS_FILE", ""),

		RefreshSchedule:   getEnv("REFRESH_SCHEDULE", "weekly"),
		WebhookURL:        getEnv("DIGEST_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("DIGEST_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.RefreshSchedule != "daily" && c.RefreshSchedule != "weekly" {
		return fmt.Errorf("REFRESH_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.MinDistinctCreators < 1 {
		return fmt.Errorf("MIN_DISTINCT_CREATORS must be at least 1")
	}

	if c.RateLimitPerHour < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_HOUR must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when DIGEST_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
