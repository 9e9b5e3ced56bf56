// Package config provides application configuration management
// with validation and environment parsing.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Environment string
	Port        string
	Host        string
	Feed        FeedConfig
	AI          AIConfig
	Likes       LikesConfig
	Backfill    BackfillConfig
	Logging     *LoggingConfig
	Server      *ServerConfig
}

// FeedConfig holds the external image feed API configuration
type FeedConfig struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// AIConfig holds the generative vision API configuration
type AIConfig struct {
	Enabled     bool
	APIKey      string
	Model       string
	Temperature float64
}

// LikesConfig holds the Redis-backed liked-set persistence configuration
type LikesConfig struct {
	Enabled      bool
	Address      string
	Password     string
	Database     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BackfillConfig holds the metadata backfill pipeline tuning knobs
type BackfillConfig struct {
	Workers           int
	ImageTimeout      time.Duration
	MaxImageDimension int
	EncodeCacheTTL    time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load creates a new configuration from environment variables with validation
func Load() (*Config, error) {
	feedTimeout, _ := time.ParseDuration(getEnv("FEED_TIMEOUT", "15s"))
	imageTimeout, _ := time.ParseDuration(getEnv("BACKFILL_IMAGE_TIMEOUT", "30s"))
	encodeCacheTTL, _ := time.ParseDuration(getEnv("BACKFILL_ENCODE_CACHE_TTL", "10m"))

	readTimeout, _ := time.ParseDuration(getEnv("READ_TIMEOUT", "10s"))
	writeTimeout, _ := time.ParseDuration(getEnv("WRITE_TIMEOUT", "10s"))
	idleTimeout, _ := time.ParseDuration(getEnv("SERVER_TIMEOUT", "30s"))

	likesDialTimeout, _ := time.ParseDuration(getEnv("LIKES_REDIS_DIAL_TIMEOUT", "5s"))
	likesReadTimeout, _ := time.ParseDuration(getEnv("LIKES_REDIS_READ_TIMEOUT", "3s"))
	likesWriteTimeout, _ := time.ParseDuration(getEnv("LIKES_REDIS_WRITE_TIMEOUT", "3s"))

	config := &Config{
		Environment: getEnv("GO_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		Host:        getEnv("HOST", "localhost"),
		Feed: FeedConfig{
			BaseURL:  getEnv("FEED_BASE_URL", "http://localhost:9000"),
			PageSize: getEnvInt("FEED_PAGE_SIZE", 10),
			Timeout:  feedTimeout,
		},
		AI: AIConfig{
			Enabled:     getEnvBool("AI_ENABLED", true),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("AI_MODEL", "gemini-2.0-flash"),
			Temperature: getEnvFloat("AI_TEMPERATURE", 0.2),
		},
		Likes: LikesConfig{
			Enabled:      getEnvBool("LIKES_REDIS_ENABLED", false),
			Address:      getEnv("LIKES_REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnv("LIKES_REDIS_PASSWORD", ""),
			Database:     getEnvInt("LIKES_REDIS_DATABASE", 0),
			DialTimeout:  likesDialTimeout,
			ReadTimeout:  likesReadTimeout,
			WriteTimeout: likesWriteTimeout,
		},
		Backfill: BackfillConfig{
			Workers:           getEnvInt("BACKFILL_WORKERS", 4),
			ImageTimeout:      imageTimeout,
			MaxImageDimension: getEnvInt("BACKFILL_MAX_IMAGE_DIMENSION", 1024),
			EncodeCacheTTL:    encodeCacheTTL,
		},
		Logging: &LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Server: &ServerConfig{
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}

	// Validate configuration before returning
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
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

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// MustLoad loads configuration and panics on error
// Useful for startup scenarios where invalid config should crash the application
func MustLoad() *Config {
	config, err := Load()
	if err != nil {
		panic(err)
	}
	return config
}
