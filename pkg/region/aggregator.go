// Package region pre-aggregates snapshots per country at write time, so
// region history reads are a plain indexed query instead of a fan-out
// over every node in every bucket.
package region

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/meshmon/meshmon/pkg/snapshot"
)

// unknownCountry groups nodes whose geolocation never resolved.
const unknownCountry = "Unknown"

// Store is the slice of storage the aggregator needs.
type Store interface {
	UpsertRegionSnapshot(snap *models.RegionSnapshot) error
	GetRegionSnapshots(country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, error)
	GetRegionSnapshotBefore(country, bucketKey string) (*models.RegionSnapshot, error)
}

// Aggregator derives per-country snapshots from each network snapshot and
// serves region history through the cache.
type Aggregator struct {
	store Store
	cache *Cache
}

// NewAggregator wires the aggregator to its store and read cache.
func NewAggregator(store Store, cache *Cache) *Aggregator {
	return &Aggregator{
		store: store,
		cache: cache,
	}
}

// Aggregate groups a snapshot's node array by country and upserts one
// RegionSnapshot per country for the same bucket. One country failing
// does not stop the others; the first error is reported at the end.
func (a *Aggregator) Aggregate(ctx context.Context, snap *models.HistoricalSnapshot) error {
	groups := make(map[string][]models.NodeMetricSnapshot)
	codes := make(map[string]string)

	for _, node := range snap.Nodes {
		country := node.Country
		if country == "" {
			country = unknownCountry
		}

		groups[country] = append(groups[country], node)

		if node.CountryCode != "" {
			codes[country] = node.CountryCode
		}
	}

	var firstErr error

	for country, nodes := range groups {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("region aggregation canceled: %w", err)
		}

		if err := a.aggregateCountry(country, codes[country], nodes, snap); err != nil {
			log.Printf("Failed to aggregate region %s for bucket %s: %v", country, snap.BucketKey, err)

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// aggregateCountry writes one country's snapshot, computing the credit
// delta against the country's previous bucket. NodeCredits carries the
// last known balance of every node ever seen in the country, so a node
// that skips buckets still gets its full delta attributed when it
// returns instead of inflating or diluting the regional figure.
func (a *Aggregator) aggregateCountry(country, countryCode string, nodes []models.NodeMetricSnapshot, snap *models.HistoricalSnapshot) error {
	prev, err := a.store.GetRegionSnapshotBefore(country, snap.BucketKey)
	if err != nil {
		return fmt.Errorf("previous bucket lookup: %w", err)
	}

	credits := make(map[string]int64)

	for i := range nodes {
		if nodes[i].CreditsEarned != nil {
			credits[nodes[i].NodeKey] = *nodes[i].CreditsEarned
		}
	}

	var earned int64

	if prev != nil {
		for key, last := range prev.NodeCredits {
			current, present := credits[key]
			if !present {
				// Not observed this bucket: carry the balance forward.
				credits[key] = last
				continue
			}

			if delta := current - last; delta > 0 {
				earned += delta
			}
		}
	}

	region := &models.RegionSnapshot{
		BucketKey:     snap.BucketKey,
		BucketTime:    snap.BucketTime,
		Country:       country,
		CountryCode:   countryCode,
		Aggregates:    snapshot.ComputeAggregates(nodes),
		NodeCredits:   credits,
		CreditsEarned: earned,
		CreatedAt:     snap.UpdatedAt,
		UpdatedAt:     snap.UpdatedAt,
	}

	if err := a.store.UpsertRegionSnapshot(region); err != nil {
		return fmt.Errorf("write region snapshot: %w", err)
	}

	if a.cache != nil {
		a.cache.Invalidate(country, snap.BucketTime)
	}

	return nil
}

// History serves a region history query, consulting the cache first. On a
// miss the store query is O(matching rows); aggregation already happened
// at write time.
func (a *Aggregator) History(ctx context.Context, country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, error) {
	if a.cache != nil {
		if snaps, ok := a.cache.Get(country, countryCode, start, end); ok {
			return snaps, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("region history canceled: %w", err)
	}

	snaps, err := a.store.GetRegionSnapshots(country, countryCode, start, end)
	if err != nil {
		return nil, fmt.Errorf("region history query: %w", err)
	}

	if a.cache != nil {
		a.cache.Set(country, countryCode, start, end, snaps)
	}

	return snaps, nil
}
