package region

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/meshmon/meshmon/pkg/models"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheEntries = 256
	cacheKeySeparator   = "|"
)

// Cache is the short-TTL, process-local cache in front of the region
// history store. Entries are keyed by the full query shape and are
// invalidated proactively when a new bucket lands inside their range;
// ttlcache handles age expiry and the capacity bound.
type Cache struct {
	entries *ttlcache.Cache[string, []models.RegionSnapshot]
}

// NewCache creates a started cache. ttl and maxEntries fall back to
// defaults when non-positive.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}

	entries := ttlcache.New(
		ttlcache.WithTTL[string, []models.RegionSnapshot](ttl),
		ttlcache.WithCapacity[string, []models.RegionSnapshot](uint64(maxEntries)),
	)

	go entries.Start()

	return &Cache{entries: entries}
}

// Stop halts the background expiry loop.
func (c *Cache) Stop() {
	c.entries.Stop()
}

// Get returns a cached query result, if present and unexpired.
func (c *Cache) Get(country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, bool) {
	item := c.entries.Get(cacheKey(country, countryCode, start, end))
	if item == nil {
		return nil, false
	}

	return item.Value(), true
}

// Set stores a query result.
func (c *Cache) Set(country, countryCode string, start, end time.Time, snaps []models.RegionSnapshot) {
	c.entries.Set(cacheKey(country, countryCode, start, end), snaps, ttlcache.DefaultTTL)
}

// Invalidate drops every cached query for the country whose time range
// covers ts, so readers observe a freshly written bucket immediately
// instead of after TTL expiry.
func (c *Cache) Invalidate(country string, ts time.Time) {
	for _, key := range c.entries.Keys() {
		keyCountry, start, end, ok := parseCacheKey(key)
		if !ok || keyCountry != country {
			continue
		}

		if rangeCovers(start, end, ts) {
			c.entries.Delete(key)
		}
	}
}

// cacheKey escapes the relay-supplied country fields so a country name
// containing the separator cannot corrupt the key shape.
func cacheKey(country, countryCode string, start, end time.Time) string {
	return strings.Join([]string{
		url.QueryEscape(country),
		url.QueryEscape(countryCode),
		strconv.FormatInt(unixOrZero(start), 10),
		strconv.FormatInt(unixOrZero(end), 10),
	}, cacheKeySeparator)
}

func parseCacheKey(key string) (country string, start, end int64, ok bool) {
	parts := strings.Split(key, cacheKeySeparator)
	if len(parts) != 4 {
		return "", 0, 0, false
	}

	country, err := url.QueryUnescape(parts[0])
	if err != nil {
		return "", 0, 0, false
	}

	start, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}

	end, err = strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return "", 0, 0, false
	}

	return country, start, end, true
}

// rangeCovers treats a zero bound as unbounded on that side.
func rangeCovers(start, end int64, ts time.Time) bool {
	u := ts.Unix()

	if start != 0 && u < start {
		return false
	}

	if end != 0 && u > end {
		return false
	}

	return true
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.Unix()
}

// Len is exposed for tests and the status endpoint.
func (c *Cache) Len() int {
	return c.entries.Len()
}
