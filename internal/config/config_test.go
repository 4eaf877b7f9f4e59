package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1", cfg.API.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.API.Engine)
	assert.Equal(t, 256, cfg.API.MaxTokens)
	assert.Equal(t, float64(0), cfg.API.Temperature)
	assert.Equal(t, 3, cfg.API.RetryAttempts)
	assert.Equal(t, 3, cfg.Run.SampleLimit)
	assert.Equal(t, 3, cfg.Run.MaxIter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("BIRDSQL_ENGINE", "gpt-4o")
	t.Setenv("BIRDSQL_MAX_ITER", "5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.API.Engine)
	assert.Equal(t, 5, cfg.Run.MaxIter)
	assert.Equal(t, "sk-test", cfg.API.APIKey)
}

func TestLoadConfigWithOverrides(t *testing.T) {
	overrides := map[string]interface{}{
		"api-key":  "sk-flag",
		"engine":   "gpt-4.1",
		"max-iter": 7,
		"log-dir":  "/tmp/logs",
	}

	cfg, err := LoadConfigWithOverrides(overrides)
	require.NoError(t, err)

	assert.Equal(t, "sk-flag", cfg.API.APIKey)
	assert.Equal(t, "gpt-4.1", cfg.API.Engine)
	assert.Equal(t, 7, cfg.Run.MaxIter)
	assert.Equal(t, "/tmp/logs", cfg.Run.LogDir)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "BIRDSQL_LOG_LEVEL", "loud"},
		{"bad log format", "BIRDSQL_LOG_FORMAT", "xml"},
		{"bad log output", "BIRDSQL_LOG_OUTPUT", "syslog"},
		{"bad timeout", "BIRDSQL_API_TIMEOUT", "soon"},
		{"bad retry interval", "BIRDSQL_RETRY_INTERVAL", "whenever"},
		{"zero retry attempts", "BIRDSQL_RETRY_ATTEMPTS", "0"},
		{"zero max tokens", "BIRDSQL_MAX_TOKENS", "0"},
		{"negative sample limit", "BIRDSQL_SAMPLE_LIMIT", "-1"},
		{"zero max iter", "BIRDSQL_MAX_ITER", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireAPIKey())

	cfg.API.APIKey = "   "
	assert.Error(t, cfg.RequireAPIKey())

	cfg.API.APIKey = "sk-test"
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestParsedDurations(t *testing.T) {
	cfg := &Config{}
	cfg.API.Timeout = "30s"
	cfg.API.RetryInterval = "5s"

	assert.Equal(t, 30*time.Second, cfg.APITimeout())
	assert.Equal(t, 5*time.Second, cfg.RetryInterval())

	cfg.API.Timeout = "garbage"
	cfg.API.RetryInterval = "garbage"

	assert.Equal(t, 60*time.Second, cfg.APITimeout())
	assert.Equal(t, 15*time.Second, cfg.RetryInterval())
}
