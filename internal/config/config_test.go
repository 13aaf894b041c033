package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "access.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9000, cfg.Analysis.SampleSize)
	assert.Equal(t, int64(42), cfg.Analysis.Seed)
	assert.Equal(t, 1, cfg.Analysis.Workers)
	assert.False(t, cfg.Analysis.StrictCoordinates)
	assert.Equal(t, 0, cfg.Analysis.TimeoutSecs)
	assert.Equal(t, 5, cfg.Analysis.UnderservedTop)
	assert.Equal(t, 500, cfg.Analysis.ProgressEvery)
	assert.Equal(t, uint64(42), cfg.Dataset.JitterSeed)
	assert.Empty(t, cfg.Dataset.CentroidsPath)
	assert.Empty(t, cfg.Dataset.Fields)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/access
log:
  level: debug
  format: console
analysis:
  sample_size: 500
  workers: 4
  strict_coordinates: true
dataset:
  centroids_path: medellin.yaml
  fields:
    region: [comuna, localidad]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/access", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 500, cfg.Analysis.SampleSize)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.True(t, cfg.Analysis.StrictCoordinates)
	assert.Equal(t, "medellin.yaml", cfg.Dataset.CentroidsPath)
	assert.Equal(t, []string{"comuna", "localidad"}, cfg.Dataset.Fields["region"])
	// Defaults still apply for unset values
	assert.Equal(t, int64(42), cfg.Analysis.Seed)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("ACCESS_STORE_DRIVER", "postgres")
	t.Setenv("ACCESS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ACCESS_SERVER_PORT", "3000")
	t.Setenv("ACCESS_ANALYSIS_SAMPLE_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Analysis.SampleSize)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "access.db"
	cfg.Analysis.SampleSize = 9000
	cfg.Analysis.Workers = 1
	cfg.Analysis.UnderservedTop = 5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	for _, mode := range []string{"analyze", "runs", "serve"} {
		assert.NoError(t, validDefaults().Validate(mode), mode)
	}
}

func TestValidate_Store(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_Analyze(t *testing.T) {
	cfg := validDefaults()
	cfg.Analysis.Workers = 0
	cfg.Analysis.SampleSize = -1
	cfg.Analysis.TimeoutSecs = -5

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.workers must be between 1 and 256")
	assert.Contains(t, err.Error(), "analysis.sample_size must be >= 0")
	assert.Contains(t, err.Error(), "analysis.timeout_secs must be >= 0")

	// Serve does not care about analysis settings.
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
