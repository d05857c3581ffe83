// Package db pkg/db/interfaces.go
package db

import (
	"time"

	"github.com/meshmon/meshmon/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/meshmon/meshmon/pkg/db Service

// Service represents all database operations. Lookup methods return
// (nil, nil) when no matching row exists.
type Service interface {
	Close() error

	// Registry operations.

	CreateNode(node *models.NodeRecord) error
	UpdateNode(node *models.NodeRecord) error
	DeleteNode(key string) error
	GetNode(key string) (*models.NodeRecord, error)
	GetNodesByAddress(address string) ([]models.NodeRecord, error)
	ListNodes() ([]models.NodeRecord, error)
	MarkUnseenExcept(keys []string) (int64, error)
	DeleteAddressOnlyDuplicates() (int64, error)

	// Network history operations.

	UpsertNetworkSnapshot(snap *models.HistoricalSnapshot) error
	GetNetworkSnapshots(start, end time.Time, limit int) ([]models.HistoricalSnapshot, error)

	// Region history operations.

	UpsertRegionSnapshot(snap *models.RegionSnapshot) error
	GetRegionSnapshots(country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, error)
	GetRegionSnapshotBefore(country, bucketKey string) (*models.RegionSnapshot, error)

	// Per-node time series operations.

	AddNodeMetric(point *models.NodeMetricPoint) error
	GetNodeMetrics(nodeKey string, start, end time.Time, limit int) ([]models.NodeMetricPoint, error)

	// Maintenance operations.

	CleanOldData(retentionPeriod time.Duration) error
}
