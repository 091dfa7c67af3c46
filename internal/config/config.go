// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production"

	// PostgreSQL record store. Disabled when DBHost is empty.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Valkey persistence backend. In-memory when ValkeyHost is empty.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	HistoryQuota   int64 // bytes per user

	// AI providers
	AIProvider       string // "gemini", "openai"
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	GeminiVideoModel string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIImageModel string

	// S3 archive delivery. Disabled when S3Endpoint is empty.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Export
	ExportScale       float64
	ExportViewport    float64
	ExportConcurrency int

	// Requests per minute per user on generation routes.
	RateLimitRPM int
}

// Load reads configuration from a .env file, if present, and the
// environment, applying defaults where appropriate. Returns an error for
// malformed numeric values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := &Config{
		Host: envOrDefault("CAROUMATE_HOST", "0.0.0.0"),
		Port: envOrDefault("CAROUMATE_PORT", "8080"),
		Env:  envOrDefault("CAROUMATE_ENV", "production"),

		DBHost:     os.Getenv("POSTGRES_HOST"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "caroumate"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "caroumate"),
		DBSSLMode:  envOrDefault("POSTGRES_SSLMODE", "disable"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AIProvider:       envOrDefault("AI_PROVIDER", "gemini"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel: envOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel: envOrDefault("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIImageModel: envOrDefault("OPENAI_IMAGE_MODEL", "gpt-image-1"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "caroumate-exports"),
	}

	var err error
	if cfg.HistoryQuota, err = envInt64("HISTORY_QUOTA_BYTES", 5<<20); err != nil {
		return nil, err
	}
	if cfg.ExportScale, err = envFloat("EXPORT_SCALE", 2); err != nil {
		return nil, err
	}
	if cfg.ExportViewport, err = envFloat("EXPORT_VIEWPORT", 1200); err != nil {
		return nil, err
	}
	if cfg.ExportConcurrency, err = envInt("EXPORT_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM, err = envInt("RATE_LIMIT_RPM", 60); err != nil {
		return nil, err
	}

	if cfg.Env == "production" && cfg.DBHost != "" && cfg.DBPassword == "changeme" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasDatabase reports whether the Postgres record store is configured.
func (c *Config) HasDatabase() bool { return c.DBHost != "" }

// HasValkey reports whether persistence goes to Valkey.
func (c *Config) HasValkey() bool { return c.ValkeyHost != "" }

// HasS3 reports whether archives can be delivered through S3.
func (c *Config) HasS3() bool { return c.S3Endpoint != "" }

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
