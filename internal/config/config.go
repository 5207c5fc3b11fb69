package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	LogFormat   string

	// Admission quotas. Each action class is checked independently.
	GeneralLimit  int
	GeneralWindow time.Duration
	PostLimit     int
	PostWindow    time.Duration
	CommentLimit  int
	CommentWindow time.Duration

	// Inbound burst guard, in front of the admission controller.
	BurstPerSecond float64
	BurstSize      int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		GeneralLimit:  getEnvInt("RATE_LIMIT_GENERAL", 100),
		GeneralWindow: getEnvDuration("RATE_LIMIT_GENERAL_WINDOW", time.Minute),
		PostLimit:     getEnvInt("RATE_LIMIT_POSTS", 1),
		PostWindow:    getEnvDuration("RATE_LIMIT_POSTS_WINDOW", 30*time.Minute),
		CommentLimit:  getEnvInt("RATE_LIMIT_COMMENTS", 50),
		CommentWindow: getEnvDuration("RATE_LIMIT_COMMENTS_WINDOW", time.Hour),

		BurstPerSecond: getEnvFloat("BURST_PER_SECOND", 20),
		BurstSize:      getEnvInt("BURST_SIZE", 40),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.GeneralLimit <= 0 || cfg.PostLimit <= 0 || cfg.CommentLimit <= 0 {
		return nil, fmt.Errorf("rate limits must be positive")
	}
	if cfg.GeneralWindow <= 0 || cfg.PostWindow <= 0 || cfg.CommentWindow <= 0 {
		return nil, fmt.Errorf("rate limit windows must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
