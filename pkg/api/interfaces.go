// Package api pkg/api/interfaces.go
package api

import (
	"context"
	"time"

	"github.com/meshmon/meshmon/pkg/metrics"
	"github.com/meshmon/meshmon/pkg/models"
	"github.com/meshmon/meshmon/pkg/scheduler"
)

// SystemStatus is the /api/status payload. Readers only ever see the last
// reconciled state; failures show up as staleness here, not as errors.
type SystemStatus struct {
	TotalNodes   int              `json:"total_nodes"`
	OnlineNodes  int              `json:"online_nodes"`
	SeenInGossip int              `json:"seen_in_gossip"`
	LastUpdate   time.Time        `json:"last_update"`
	Scheduler    scheduler.Status `json:"scheduler"`
}

// DataProvider is what the API server reads from. Lookups return
// (nil, nil) for unknown keys.
type DataProvider interface {
	GetAllNodes() ([]models.NodeRecord, error)
	GetNode(key string) (*models.NodeRecord, error)
	GetNetworkHistory(start, end time.Time, limit int) ([]models.HistoricalSnapshot, error)
	GetRegionHistory(ctx context.Context, country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, error)
	GetNodeHistory(key string, start, end time.Time, limit int) ([]models.NodeMetricPoint, error)
	GetLivePoints(key string) []metrics.TelemetryPoint
	Status() SystemStatus
}
