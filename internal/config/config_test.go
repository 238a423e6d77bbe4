package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyDir points config lookups at a directory without config.yaml and
// moves the working directory there so no stray .env is picked up.
func emptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := emptyDir(t)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "https://api.waqi.info", cfg.WAQI.BaseURL)
	assert.Equal(t, "https://us1.locationiq.com/v1/search", cfg.LocationIQ.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 0, cfg.Upstream.MaxRetries)
	assert.Equal(t, 8, cfg.Upstream.BatchConcurrency)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.WarmerInterval)
	require.Len(t, cfg.Cities, 5)
	assert.Equal(t, "Kochi", cfg.Cities[0].Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := emptyDir(t)
	t.Setenv("PORT", "8081")
	t.Setenv("AQI_API_KEY", "waqi-token")
	t.Setenv("LOCATIONIQ_API_KEY", "liq-key")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.Addr())
	assert.Equal(t, "waqi-token", cfg.WAQI.APIKey)
	assert.Equal(t, "liq-key", cfg.LocationIQ.APIKey)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
}

func TestLoadConfigFile(t *testing.T) {
	dir := emptyDir(t)
	yaml := `
cache:
  backend: memory
  ttl: 5m
warmer:
  interval: 15m
upstream:
  max_retries: 2
cities:
  - name: Thrissur
    lat: 10.5276
    lon: 76.2144
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Minute, cfg.WarmerInterval)
	assert.Equal(t, 2, cfg.Upstream.MaxRetries)
	require.Len(t, cfg.Cities, 1)
	assert.Equal(t, "Thrissur", cfg.Cities[0].Name)
	assert.InDelta(t, 10.5276, cfg.Cities[0].Lat, 1e-9)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CACHE_BACKEND":    "memcached",
		"UPSTREAM_TIMEOUT": "soon",
		"LOG_LEVEL":        "verbose",
		"WAQI_BASE_URL":    "not a url",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			dir := emptyDir(t)
			t.Setenv(env, value)
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsInvalidCity(t *testing.T) {
	dir := emptyDir(t)
	yaml := "cities:\n  - name: Nowhere\n    lat: 123\n    lon: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}
