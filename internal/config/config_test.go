package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:              "8764",
		Env:               "development",
		JWTSecret:         "a-development-secret",
		SessionTTLMinutes: 60,
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Port)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Positive(t, cfg.SessionTTLMinutes)
	assert.Positive(t, cfg.DBMaxOpenConns)
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Port = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.SessionTTLMinutes = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateProductionRules(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.JWTSecret = "your-secret-key-change-in-production"
	cfg.DBPassword = "strong-production-password"
	assert.Error(t, cfg.Validate(), "default JWT secret must be rejected in production")

	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate(), "short JWT secret must be rejected in production")

	cfg.JWTSecret = "a-very-long-production-secret-with-32plus-chars"
	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate(), "default DB password must be rejected in production")

	cfg.DBPassword = "strong-production-password"
	assert.NoError(t, cfg.Validate())
}
