package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	// Static landing-page assets
	StaticDir string

	// CRM forwarding
	CRMBaseURL     string
	CRMAccessToken string
	CRMTimeout     time.Duration

	// Optional Redis backend for the rate limiter
	RedisURL string

	// Lead intake
	RequireName bool // whether the deployment variant collects a visitor name
	CouponCode  string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "production"),
		StaticDir:         getEnv("STATIC_DIR", "public"),
		CRMBaseURL:        getEnv("CRM_BASE_URL", "https://api.hubapi.com"),
		CRMAccessToken:    getEnv("CRM_ACCESS_TOKEN", ""),
		CRMTimeout:        getDurationEnv("CRM_TIMEOUT", 10*time.Second),
		RedisURL:          getEnv("REDIS_URL", ""),
		RequireName:       getBoolEnv("REQUIRE_NAME", true),
		CouponCode:        getEnv("COUPON_CODE", "BEST10"),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 5),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
