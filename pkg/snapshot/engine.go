// Package snapshot turns the continuously overwritten registry into an
// append-only, interval-bucketed history.
package snapshot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/meshmon/meshmon/pkg/models"
)

const defaultBucketWidth = 10 * time.Minute

// Store is the slice of storage the snapshot engine writes through.
type Store interface {
	UpsertNetworkSnapshot(snap *models.HistoricalSnapshot) error
	AddNodeMetric(point *models.NodeMetricPoint) error
}

// RegionSink receives each written snapshot for per-country
// pre-aggregation. Its failures are isolated from the network-level write.
type RegionSink interface {
	Aggregate(ctx context.Context, snap *models.HistoricalSnapshot) error
}

// Engine computes and persists one network snapshot per bucket.
type Engine struct {
	store       Store
	regions     RegionSink
	clock       clockwork.Clock
	bucketWidth time.Duration
}

// NewEngine creates a snapshot engine. regions may be nil to disable
// region pre-aggregation.
func NewEngine(store Store, regions RegionSink, clock clockwork.Clock, bucketWidth time.Duration) *Engine {
	if bucketWidth <= 0 {
		bucketWidth = defaultBucketWidth
	}

	return &Engine{
		store:       store,
		regions:     regions,
		clock:       clock,
		bucketWidth: bucketWidth,
	}
}

// Capture aggregates the given registry state into the current time
// bucket. Repeated captures within one bucket window refine the same
// stored document rather than creating duplicates.
func (e *Engine) Capture(ctx context.Context, nodes []models.NodeRecord) (*models.HistoricalSnapshot, error) {
	now := e.clock.Now().UTC()
	key, bucketTime := BucketKey(now, e.bucketWidth)

	metricNodes := BuildNodeMetrics(nodes)

	snap := &models.HistoricalSnapshot{
		BucketKey:  key,
		BucketTime: bucketTime,
		Aggregates: ComputeAggregates(metricNodes),
		Nodes:      metricNodes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := e.store.UpsertNetworkSnapshot(snap); err != nil {
		return nil, fmt.Errorf("write snapshot %s: %w", key, err)
	}

	e.appendNodeMetrics(nodes, now)

	// Region aggregation is best-effort: the network-level snapshot above
	// stands regardless of what happens here.
	if e.regions != nil {
		if err := e.regions.Aggregate(ctx, snap); err != nil {
			log.Printf("Region aggregation failed for bucket %s: %v", key, err)
		}
	}

	return snap, nil
}

// appendNodeMetrics stores one time-series point per node observed this
// cycle. Nodes missing from gossip keep their last point; appending a
// stale copy would fabricate data.
func (e *Engine) appendNodeMetrics(nodes []models.NodeRecord, now time.Time) {
	for i := range nodes {
		n := &nodes[i]
		if !n.SeenInGossip {
			continue
		}

		point := &models.NodeMetricPoint{
			NodeKey:       n.Key(),
			Timestamp:     now,
			Status:        n.Status,
			CPUPercent:    n.CPUPercent,
			RAMUsed:       n.RAMUsed,
			StorageUsed:   n.StorageUsed,
			CreditsEarned: n.CreditsEarned,
		}

		if err := e.store.AddNodeMetric(point); err != nil {
			log.Printf("Failed to append metric point for %s: %v", n.Key(), err)
		}
	}
}
