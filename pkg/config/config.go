// Package config pkg/config/config.go loads runtime settings from
// MESHMON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	errMissingDBPath    = errors.New("MESHMON_DB_PATH is required")
	errMissingEndpoints = errors.New("MESHMON_RELAY_ENDPOINTS is required")
	errInvalidDuration  = errors.New("invalid duration")
	errInvalidInt       = errors.New("invalid integer")
)

const (
	defaultListenAddr        = ":8090"
	defaultRefreshInterval   = time.Minute
	defaultBucketWidth       = 10 * time.Minute
	defaultStuckCycleTimeout = 5 * time.Minute
	defaultMaxSkipped        = 3
	defaultFetchTimeout      = 30 * time.Second
	defaultCacheTTL          = 5 * time.Minute
	defaultCacheMaxEntries   = 256
	defaultRetention         = 30 * 24 * time.Hour
	defaultMetricsBufferSize = 100
)

// Config carries everything the server needs to run. Zero values mean
// "use the default"; Validate fills them in.
type Config struct {
	ListenAddr         string
	DBPath             string
	RelayEndpoints     []string
	RefreshInterval    time.Duration
	BucketWidth        time.Duration
	StuckCycleTimeout  time.Duration
	MaxSkippedTriggers int
	HeartbeatInterval  time.Duration
	FetchTimeout       time.Duration
	CacheTTL           time.Duration
	CacheMaxEntries    int
	Retention          time.Duration
	MetricsBufferSize  int
}

// FromEnv reads the configuration from the environment and validates it.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr: envString("MESHMON_LISTEN_ADDR", defaultListenAddr),
		DBPath:     os.Getenv("MESHMON_DB_PATH"),
	}

	for _, e := range strings.Split(os.Getenv("MESHMON_RELAY_ENDPOINTS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			cfg.RelayEndpoints = append(cfg.RelayEndpoints, e)
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"MESHMON_REFRESH_INTERVAL", &cfg.RefreshInterval},
		{"MESHMON_BUCKET_WIDTH", &cfg.BucketWidth},
		{"MESHMON_STUCK_CYCLE_TIMEOUT", &cfg.StuckCycleTimeout},
		{"MESHMON_HEARTBEAT_INTERVAL", &cfg.HeartbeatInterval},
		{"MESHMON_FETCH_TIMEOUT", &cfg.FetchTimeout},
		{"MESHMON_CACHE_TTL", &cfg.CacheTTL},
		{"MESHMON_RETENTION", &cfg.Retention},
	}

	for _, d := range durations {
		var err error
		if *d.dst, err = envDuration(d.name); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MESHMON_MAX_SKIPPED_TRIGGERS", &cfg.MaxSkippedTriggers},
		{"MESHMON_CACHE_MAX_ENTRIES", &cfg.CacheMaxEntries},
		{"MESHMON_METRICS_BUFFER_SIZE", &cfg.MetricsBufferSize},
	}

	for _, i := range ints {
		var err error
		if *i.dst, err = envInt(i.name); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings and applies defaults for everything
// left unset.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errMissingDBPath
	}

	if len(c.RelayEndpoints) == 0 {
		return errMissingEndpoints
	}

	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaultRefreshInterval
	}

	if c.BucketWidth <= 0 {
		c.BucketWidth = defaultBucketWidth
	}

	if c.StuckCycleTimeout <= 0 {
		c.StuckCycleTimeout = defaultStuckCycleTimeout
	}

	if c.MaxSkippedTriggers <= 0 {
		c.MaxSkippedTriggers = defaultMaxSkipped
	}

	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = c.RefreshInterval
	}

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}

	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}

	if c.CacheMaxEntries <= 0 {
		c.CacheMaxEntries = defaultCacheMaxEntries
	}

	if c.Retention <= 0 {
		c.Retention = defaultRetention
	}

	if c.MetricsBufferSize <= 0 {
		c.MetricsBufferSize = defaultMetricsBufferSize
	}

	return nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}

	return fallback
}

func envDuration(name string) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errInvalidDuration, name, v)
	}

	return d, nil
}

func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errInvalidInt, name, v)
	}

	return n, nil
}
