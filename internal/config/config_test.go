package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "socialapp", cfg.HTTP.AppScheme)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.RateLimit.LoginLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.LoginWindow)
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := Config{
		Auth:    AuthConfig{TokenTTL: time.Hour},
		Storage: StorageConfig{Driver: "memory"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidatePostgresNeedsDSN(t *testing.T) {
	cfg := Config{
		Auth:    AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour},
		Storage: StorageConfig{Driver: "postgres"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Storage.PostgresDSN = "postgres://localhost/app"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{
		Auth:    AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour},
		Storage: StorageConfig{Driver: "cassandra"},
	}
	assert.Error(t, cfg.Validate())
}
