package models

import "time"

// Aggregates is the shared aggregate shape of network-level and
// region-level snapshots.
type Aggregates struct {
	TotalNodes   int `json:"total_nodes"`
	OnlineNodes  int `json:"online_nodes"`
	OfflineNodes int `json:"offline_nodes"`
	SyncingNodes int `json:"syncing_nodes"`

	// Averages are computed over the nodes that reported the metric;
	// nodes lacking a metric are excluded, never counted as zero.
	AvgCPUPercent    float64 `json:"avg_cpu_percent"`
	AvgRAMUsed       float64 `json:"avg_ram_used"`
	AvgRAMTotal      float64 `json:"avg_ram_total"`
	AvgUptimeSeconds float64 `json:"avg_uptime_seconds"`

	TotalStorageCapacity int64 `json:"total_storage_capacity"`
	TotalStorageUsed     int64 `json:"total_storage_used"`
	TotalStorageCommit   int64 `json:"total_storage_committed"`
	TotalActiveStreams   int64 `json:"total_active_streams"`

	VersionCounts map[string]int `json:"version_counts"`
	CountryCount  int            `json:"country_count"`
	CityCount     int            `json:"city_count"`

	AvailabilityScore int `json:"availability_score"`
	VersionScore      int `json:"version_score"`
	DistributionScore int `json:"distribution_score"`
	OverallScore      int `json:"overall_score"`
}

// NodeMetricSnapshot is the per-node slice embedded in a bucket snapshot:
// the node key plus the mutable telemetry observed in that bucket. The
// country/city fields ride along so region aggregation can group the array
// without a registry round trip.
type NodeMetricSnapshot struct {
	NodeKey     string     `json:"node_key"`
	Status      NodeStatus `json:"status"`
	Version     string     `json:"version,omitempty"`
	Country     string     `json:"country,omitempty"`
	CountryCode string     `json:"country_code,omitempty"`
	City        string     `json:"city,omitempty"`

	CPUPercent       *float64 `json:"cpu_percent,omitempty"`
	RAMUsed          *float64 `json:"ram_used,omitempty"`
	RAMTotal         *float64 `json:"ram_total,omitempty"`
	UptimeSeconds    *int64   `json:"uptime_seconds,omitempty"`
	StorageCapacity  *int64   `json:"storage_capacity,omitempty"`
	StorageUsed      *int64   `json:"storage_used,omitempty"`
	StorageCommitted *int64   `json:"storage_committed,omitempty"`
	ActiveStreams    *int64   `json:"active_streams,omitempty"`
	CreditsEarned    *int64   `json:"credits_earned,omitempty"`
}

// HistoricalSnapshot is the network-wide aggregate for one time bucket.
// Exactly one exists per bucket key; re-writing a bucket replaces its
// aggregates (last write wins within the bucket window).
type HistoricalSnapshot struct {
	BucketKey  string    `json:"bucket_key"`
	BucketTime time.Time `json:"bucket_time"`

	Aggregates

	Nodes []NodeMetricSnapshot `json:"nodes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegionSnapshot is the per-country aggregate derived from one
// HistoricalSnapshot at write time. NodeCredits carries the last known
// credit balance per node key (including nodes absent from this bucket)
// so credit deltas stay attributable across gaps.
type RegionSnapshot struct {
	BucketKey   string    `json:"bucket_key"`
	BucketTime  time.Time `json:"bucket_time"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code,omitempty"`

	Aggregates

	NodeCredits   map[string]int64 `json:"node_credits"`
	CreditsEarned int64            `json:"credits_earned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NodeMetricPoint is one persisted per-node time-series sample, appended
// every reconciliation cycle and served by the node history API.
type NodeMetricPoint struct {
	NodeKey   string     `json:"node_key"`
	Timestamp time.Time  `json:"timestamp"`
	Status    NodeStatus `json:"status"`

	CPUPercent    *float64 `json:"cpu_percent,omitempty"`
	RAMUsed       *float64 `json:"ram_used,omitempty"`
	StorageUsed   *int64   `json:"storage_used,omitempty"`
	CreditsEarned *int64   `json:"credits_earned,omitempty"`
}
