package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
linkedin:
  username: agent@example.com
  password: from-file
session:
  min_delay: 1s
  max_delay: 3s
cache:
  driver: memory
`)
	t.Setenv("INGEST_LINKEDIN_PASSWORD", "from-env")
	t.Setenv("INGEST_SESSION_NOISE_PROBABILITY", "0.5")
	t.Setenv("INGEST_INGEST_MAX_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "agent@example.com", cfg.LinkedIn.Username)
	assert.Equal(t, "from-env", cfg.LinkedIn.Password)
	assert.Equal(t, time.Second, cfg.Session.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Session.MaxDelay)
	assert.Equal(t, 0.5, cfg.Session.NoiseProbability)
	assert.Equal(t, int64(8), cfg.Ingest.MaxConcurrency)
	assert.Equal(t, "memory", cfg.Cache.Driver)

	// untouched keys keep their defaults
	assert.Equal(t, "https://www.linkedin.com", cfg.LinkedIn.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Session.LoginTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("INGEST_LINKEDIN_USERNAME", "agent@example.com")
	t.Setenv("INGEST_LINKEDIN_PASSWORD", "pw")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Session.MinDelay)
	assert.Equal(t, 15*time.Second, cfg.Session.MaxDelay)
	assert.Equal(t, 0.3, cfg.Session.NoiseProbability)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
linkedin:
  username: agent@example.com
  password: pw
session:
  min_delay: 10s
  max_delay: 2s
  noise_probability: 1.5
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay bounds")
	assert.Contains(t, err.Error(), "noise_probability")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")

	cfg.LinkedIn.Username, cfg.LinkedIn.Password = "u", "p"
	assert.NoError(t, Validate(cfg))

	cfg.Store.Driver = "mongo"
	cfg.LinkedIn.LoginMethod = "oauth"
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "login_method")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "session.min_delay", envKey("INGEST_SESSION_MIN_DELAY"))
	assert.Equal(t, "linkedin.base_url", envKey("INGEST_LINKEDIN_BASE_URL"))
	assert.Equal(t, "metrics.addr", envKey("INGEST_METRICS_ADDR"))
}
