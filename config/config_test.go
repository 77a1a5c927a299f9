package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, 50.0, cfg.Pipeline.TolerancePct)
	assert.Equal(t, 100.0, cfg.Pipeline.WideTolerancePct)
	assert.Equal(t, 50.0, cfg.Estimator.DefaultPrice)

	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.Capacity)
	assert.Equal(t, 24*time.Hour, cfg.Results.Retention)

	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "pricing-service", cfg.Telemetry.ServiceName)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 8080
pipeline:
  tolerance_pct: 30
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30.0, cfg.Pipeline.TolerancePct)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100.0, cfg.Pipeline.WideTolerancePct)
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SERPAPI_KEY", "serp-key")
	t.Setenv("LLM_API_KEY", "llm-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "serp-key", cfg.Search.APIKey)
	assert.Equal(t, "llm-key", cfg.LLM.APIKey)
}

func TestValidateCredentials(t *testing.T) {
	var cfg Config
	assert.ErrorIs(t, cfg.ValidateCredentials(), ErrNoCredentials)

	cfg.Search.APIKey = "serp-key"
	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)

	cfg.LLM.APIKey = "llm-key"
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := []byte("# comment\nTEST_DOTENV_KEY=\"quoted value\"\n\nTEST_DOTENV_PLAIN=plain\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Cleanup(func() {
		os.Unsetenv("TEST_DOTENV_KEY")
		os.Unsetenv("TEST_DOTENV_PLAIN")
	})

	require.NoError(t, loadDotEnvFile(path))
	assert.Equal(t, "quoted value", os.Getenv("TEST_DOTENV_KEY"))
	assert.Equal(t, "plain", os.Getenv("TEST_DOTENV_PLAIN"))
}
