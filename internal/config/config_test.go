package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "treville.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://api.affinity.co", cfg.Affinity.BaseURL)
	assert.InDelta(t, 5.0, cfg.Affinity.RateLimit, 0.001)
	assert.Equal(t, 10, cfg.Fetch.CheckpointEvery)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Match.SuffixFile)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/treville
log:
  level: debug
  format: console
fetch:
  checkpoint_every: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/treville", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 25, cfg.Fetch.CheckpointEvery)
	// Defaults still apply for unset values
	assert.Equal(t, "https://api.affinity.co", cfg.Affinity.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TREVILLE_STORE_DRIVER", "postgres")
	t.Setenv("TREVILLE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("TREVILLE_AFFINITY_KEY", "api-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "api-key", cfg.Affinity.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func TestValidateFetch_AllPresent(t *testing.T) {
	cfg := &Config{}
	cfg.Affinity.Key = "api-key"
	cfg.Store.Driver = "sqlite"
	cfg.Fetch.CheckpointEvery = 10

	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateFetch_MissingFields(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "affinity.key is required")
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "checkpoint_every must be >= 1")
}

func TestValidateFetch_PostgresNeedsURL(t *testing.T) {
	cfg := &Config{}
	cfg.Affinity.Key = "api-key"
	cfg.Store.Driver = "postgres"
	cfg.Fetch.CheckpointEvery = 10

	err := cfg.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/treville"
	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateLocal(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate("local"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := (&Config{}).Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
