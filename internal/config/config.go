package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the CLI needs to talk to a storefront backend.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	TokenFile      string
	LogLevel       string
}

// Load reads configuration from the environment, with .env as an optional
// overlay for development. Missing keys fall back to defaults; the token file
// default is resolved by the caller since it depends on the user config dir.
func Load() *Config {
	godotenv.Load()

	return &Config{
		APIBaseURL:     getEnv("STOREFRONT_API_URL", "http://localhost:8080"),
		RequestTimeout: getDuration("STOREFRONT_REQUEST_TIMEOUT", 10*time.Second),
		TokenFile:      os.Getenv("STOREFRONT_TOKEN_FILE"),
		LogLevel:       getEnv("STOREFRONT_LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
