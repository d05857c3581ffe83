package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MESHMON_DB_PATH", "/tmp/meshmon.db")
	t.Setenv("MESHMON_RELAY_ENDPOINTS", "http://relay-1:8080")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 10*time.Minute, cfg.BucketWidth)
	assert.Equal(t, 5*time.Minute, cfg.StuckCycleTimeout)
	assert.Equal(t, 3, cfg.MaxSkippedTriggers)
	assert.Equal(t, cfg.RefreshInterval, cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 256, cfg.CacheMaxEntries)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention)
	assert.Equal(t, 100, cfg.MetricsBufferSize)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MESHMON_LISTEN_ADDR", ":9999")
	t.Setenv("MESHMON_RELAY_ENDPOINTS", "http://relay-1:8080, http://relay-2:8080 ,")
	t.Setenv("MESHMON_REFRESH_INTERVAL", "30s")
	t.Setenv("MESHMON_BUCKET_WIDTH", "5m")
	t.Setenv("MESHMON_MAX_SKIPPED_TRIGGERS", "7")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, []string{"http://relay-1:8080", "http://relay-2:8080"}, cfg.RelayEndpoints)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.BucketWidth)
	assert.Equal(t, 7, cfg.MaxSkippedTriggers)
	// Heartbeat follows the refresh interval unless set explicitly.
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
}

func TestFromEnvMissingDBPath(t *testing.T) {
	t.Setenv("MESHMON_DB_PATH", "")
	t.Setenv("MESHMON_RELAY_ENDPOINTS", "http://relay-1:8080")

	_, err := FromEnv()

	assert.ErrorIs(t, err, errMissingDBPath)
}

func TestFromEnvMissingEndpoints(t *testing.T) {
	t.Setenv("MESHMON_DB_PATH", "/tmp/meshmon.db")
	t.Setenv("MESHMON_RELAY_ENDPOINTS", "")

	_, err := FromEnv()

	assert.ErrorIs(t, err, errMissingEndpoints)
}

func TestFromEnvInvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MESHMON_REFRESH_INTERVAL", "soon")

	_, err := FromEnv()

	assert.ErrorIs(t, err, errInvalidDuration)
}

func TestFromEnvInvalidInt(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MESHMON_CACHE_MAX_ENTRIES", "many")

	_, err := FromEnv()

	assert.ErrorIs(t, err, errInvalidInt)
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := &Config{
		DBPath:         "/tmp/meshmon.db",
		RelayEndpoints: []string{"http://relay-1:8080"},
	}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
}
