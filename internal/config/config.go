package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Object storage
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PathStyle    bool
	S3AccessKey    string
	S3SecretKey    string
	StorageTimeout time.Duration

	// Attachments
	PresignTTL        time.Duration
	MaxAttachmentSize int64

	// Logging
	LogLevel string

	// Security
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// Object storage; S3_BUCKET empty means the in-memory store is used
	// (development only, warned at startup).
	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.S3Region = os.Getenv("S3_REGION")
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	if pathStyle := os.Getenv("S3_PATH_STYLE"); pathStyle != "" {
		v, err := strconv.ParseBool(pathStyle)
		if err != nil {
			return nil, fmt.Errorf("S3_PATH_STYLE must be a valid boolean: %w", err)
		}
		cfg.S3PathStyle = v
	}
	cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")

	// STORAGE_TIMEOUT_SECONDS (default: 10)
	cfg.StorageTimeout = 10 * time.Second
	if timeout := os.Getenv("STORAGE_TIMEOUT_SECONDS"); timeout != "" {
		v, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("STORAGE_TIMEOUT_SECONDS must be a valid integer: %w", err)
		}
		cfg.StorageTimeout = time.Duration(v) * time.Second
	}

	// PRESIGN_TTL_SECONDS (default: 300)
	cfg.PresignTTL = 300 * time.Second
	if ttl := os.Getenv("PRESIGN_TTL_SECONDS"); ttl != "" {
		v, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("PRESIGN_TTL_SECONDS must be a valid integer: %w", err)
		}
		cfg.PresignTTL = time.Duration(v) * time.Second
	}

	// MAX_ATTACHMENT_SIZE (default: 25 MB)
	cfg.MaxAttachmentSize = 25 * 1024 * 1024
	if size := os.Getenv("MAX_ATTACHMENT_SIZE"); size != "" {
		v, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_ATTACHMENT_SIZE must be a valid integer: %w", err)
		}
		cfg.MaxAttachmentSize = v
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.PresignTTL <= 0 {
		return fmt.Errorf("PresignTTL must be positive")
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("StorageTimeout must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("s3_bucket", c.S3Bucket),
		slog.String("s3_region", c.S3Region),
		slog.Bool("s3_credentials_set", c.S3AccessKey != ""),
		slog.Duration("presign_ttl", c.PresignTTL),
		slog.Duration("storage_timeout", c.StorageTimeout),
		slog.Int64("max_attachment_size", c.MaxAttachmentSize),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}
