// Package config loads runtime configuration from the environment. A .env
// file in the working directory is honoured during local development.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration for the API server.
type Config struct {
	HTTP      HTTPConfig
	Auth      AuthConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Media     MediaConfig
}

type HTTPConfig struct {
	Addr        string   `env:"APP_ADDR" envDefault:":8080"`
	BaseURL     string   `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	AppScheme   string   `env:"APP_MOBILE_SCHEME" envDefault:"socialapp"`
	TLSCert     string   `env:"APP_TLS_CERT"`
	TLSKey      string   `env:"APP_TLS_KEY"`
	LogLevel    string   `env:"APP_LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"JWT_TTL" envDefault:"168h"`
	GoogleClientID string        `env:"GOOGLE_CLIENT_ID"`
}

type StorageConfig struct {
	Driver      string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	PostgresDSN string        `env:"DATABASE_URL"`
	MaxConns    int32         `env:"DATABASE_MAX_CONNS" envDefault:"0"`
	MinConns    int32         `env:"DATABASE_MIN_CONNS" envDefault:"0"`
	ConnTimeout time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"10s"`
}

type RateLimitConfig struct {
	LoginLimit  int           `env:"RATE_LOGIN_LIMIT" envDefault:"10"`
	LoginWindow time.Duration `env:"RATE_LOGIN_WINDOW" envDefault:"1m"`
	RedisAddr   string        `env:"RATE_REDIS_ADDR"`
	RedisUser   string        `env:"RATE_REDIS_USERNAME"`
	RedisPass   string        `env:"RATE_REDIS_PASSWORD"`
}

type MailConfig struct {
	PostmarkToken string `env:"POSTMARK_SERVER_TOKEN"`
	FromAddress   string `env:"MAIL_FROM" envDefault:"no-reply@example.com"`
}

type MediaConfig struct {
	Endpoint  string `env:"MEDIA_S3_ENDPOINT"`
	Region    string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"MEDIA_S3_ACCESS_KEY"`
	SecretKey string `env:"MEDIA_S3_SECRET_KEY"`
	Bucket    string `env:"MEDIA_S3_BUCKET"`
	PublicURL string `env:"MEDIA_S3_PUBLIC_URL"`
}

// Load reads configuration from the process environment, after merging in a
// .env file when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the settings the server cannot start without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}
