package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	HTTPPort              int
	JWTSecret             string
	DefaultHQID           string
	NotifyWebhookURL      string
	NotifyAllowedHQs      []string
	CORSAllowedOrigins    []string
	ResultCacheTTL        time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/database.db"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),
		HTTPPort:              getInt("HTTP_PORT", 8080),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		DefaultHQID:           getEnv("DEFAULT_HQ_ID", "hq-main"),
		NotifyWebhookURL:      os.Getenv("NOTIFY_WEBHOOK_URL"),
		NotifyAllowedHQs:      getList("NOTIFY_ALLOWED_HQS"),
		CORSAllowedOrigins:    getList("CORS_ALLOWED_ORIGINS"),
		ResultCacheTTL:        getDuration("RESULT_CACHE_TTL", 10*time.Minute),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AppEnv == "production" && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.GRPCPort == c.HTTPPort {
		errs = append(errs, errors.New("GRPC_PORT and HTTP_PORT must differ"))
	}
	return errors.Join(errs...)
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
