package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "bmi_coach", cfg.Database.Name)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Reset.TokenTTL)
}

func TestLoadConfigEnvOverridesSecretKeys(t *testing.T) {
	// These keys carry no default, so they only resolve through the explicit
	// env bindings.
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("LLM_API_KEY", "env-llm-key")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_USERNAME", "mailer@example.com")
	t.Setenv("EMAIL_PASSWORD", "mail-pass")
	t.Setenv("EMAIL_FROM", "coach@example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-llm-key", cfg.LLM.APIKey)
	assert.Equal(t, "smtp.example.com", cfg.Email.Host)
	assert.Equal(t, "mailer@example.com", cfg.Email.Username)
	assert.Equal(t, "mail-pass", cfg.Email.Password)
	assert.Equal(t, "coach@example.com", cfg.Email.From)
}

func TestLoadConfigEnvOverridesDefaultedKeys(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9999")
	t.Setenv("LLM_MODEL", "some/other-model")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "some/other-model", cfg.LLM.Model)
}
