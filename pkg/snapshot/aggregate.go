package snapshot

import (
	"github.com/meshmon/meshmon/pkg/models"
	"github.com/meshmon/meshmon/pkg/scoring"
)

// BuildNodeMetrics projects registry records down to the per-node metric
// slice embedded in a bucket snapshot: node key plus mutable telemetry,
// with just enough geo for region grouping.
func BuildNodeMetrics(nodes []models.NodeRecord) []models.NodeMetricSnapshot {
	out := make([]models.NodeMetricSnapshot, 0, len(nodes))

	for i := range nodes {
		n := &nodes[i]

		out = append(out, models.NodeMetricSnapshot{
			NodeKey:          n.Key(),
			Status:           n.Status,
			Version:          n.Version,
			Country:          n.Country,
			CountryCode:      n.CountryCode,
			City:             n.City,
			CPUPercent:       n.CPUPercent,
			RAMUsed:          n.RAMUsed,
			RAMTotal:         n.RAMTotal,
			UptimeSeconds:    n.UptimeSeconds,
			StorageCapacity:  n.StorageCapacity,
			StorageUsed:      n.StorageUsed,
			StorageCommitted: n.StorageCommitted,
			ActiveStreams:    n.ActiveStreams,
			CreditsEarned:    n.CreditsEarned,
		})
	}

	return out
}

// ComputeAggregates rolls a node slice up into the shared aggregate shape
// used by both network-level and region-level snapshots. Averages skip
// nodes that did not report the metric; a missing value is never zero.
func ComputeAggregates(nodes []models.NodeMetricSnapshot) models.Aggregates {
	agg := models.Aggregates{
		TotalNodes:    len(nodes),
		VersionCounts: make(map[string]int),
	}

	var (
		cpu    floatAvg
		ram    floatAvg
		ramCap floatAvg
		uptime floatAvg
	)

	countries := make(map[string]struct{})
	cities := make(map[string]struct{})

	for i := range nodes {
		n := &nodes[i]

		switch n.Status {
		case models.StatusOnline:
			agg.OnlineNodes++
		case models.StatusSyncing:
			agg.SyncingNodes++
		default:
			agg.OfflineNodes++
		}

		if n.Version != "" {
			agg.VersionCounts[n.Version]++
		}

		if n.Country != "" {
			countries[n.Country] = struct{}{}
		}

		if n.City != "" {
			cities[n.City] = struct{}{}
		}

		if n.CPUPercent != nil {
			cpu.add(*n.CPUPercent)
		}

		if n.RAMUsed != nil {
			ram.add(*n.RAMUsed)
		}

		if n.RAMTotal != nil {
			ramCap.add(*n.RAMTotal)
		}

		if n.UptimeSeconds != nil {
			uptime.add(float64(*n.UptimeSeconds))
		}

		if n.StorageCapacity != nil {
			agg.TotalStorageCapacity += *n.StorageCapacity
		}

		if n.StorageUsed != nil {
			agg.TotalStorageUsed += *n.StorageUsed
		}

		if n.StorageCommitted != nil {
			agg.TotalStorageCommit += *n.StorageCommitted
		}

		if n.ActiveStreams != nil {
			agg.TotalActiveStreams += *n.ActiveStreams
		}
	}

	agg.AvgCPUPercent = cpu.mean()
	agg.AvgRAMUsed = ram.mean()
	agg.AvgRAMTotal = ramCap.mean()
	agg.AvgUptimeSeconds = uptime.mean()
	agg.CountryCount = len(countries)
	agg.CityCount = len(cities)

	score := scoring.Score(nodes)
	agg.AvailabilityScore = score.Availability
	agg.VersionScore = score.VersionHealth
	agg.DistributionScore = score.Distribution
	agg.OverallScore = score.Overall

	return agg
}

// floatAvg accumulates a mean over only the values actually reported.
type floatAvg struct {
	sum   float64
	count int
}

func (a *floatAvg) add(v float64) {
	a.sum += v
	a.count++
}

func (a *floatAvg) mean() float64 {
	if a.count == 0 {
		return 0
	}

	return a.sum / float64(a.count)
}
