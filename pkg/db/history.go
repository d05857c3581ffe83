package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
)

// UpsertNetworkSnapshot writes one network snapshot per bucket key. A
// second write into the same bucket replaces the aggregates (last write
// wins within the bucket window), never appends a duplicate.
func (db *DB) UpsertNetworkSnapshot(snap *models.HistoricalSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w network snapshot: %w", errFailedToMarshal, err)
	}

	const query = `
		INSERT INTO network_history (bucket_key, bucket_time, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bucket_key) DO UPDATE SET
			updated_at = ?,
			data = ?
	`

	_, err = db.Exec(query,
		snap.BucketKey, snap.BucketTime, snap.CreatedAt, snap.UpdatedAt, string(data),
		snap.UpdatedAt, string(data))
	if err != nil {
		return fmt.Errorf("%w network snapshot: %w", errFailedToInsert, err)
	}

	return nil
}

// GetNetworkSnapshots returns snapshots ordered newest first, optionally
// bounded by a time range. Zero start/end times mean unbounded.
func (db *DB) GetNetworkSnapshots(start, end time.Time, limit int) ([]models.HistoricalSnapshot, error) {
	query := "SELECT data FROM network_history WHERE 1=1"
	args := make([]interface{}, 0, 3)

	if !start.IsZero() {
		query += " AND bucket_time >= ?"
		args = append(args, start)
	}

	if !end.IsZero() {
		query += " AND bucket_time <= ?"
		args = append(args, end)
	}

	query += " ORDER BY bucket_time DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...) //nolint:rowserrcheck // rows.Close() is deferred
	if err != nil {
		return nil, fmt.Errorf("%w network snapshots: %w", errFailedToQuery, err)
	}
	defer closeRows(rows)

	var snaps []models.HistoricalSnapshot

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w network snapshot row: %w", errFailedToScan, err)
		}

		var snap models.HistoricalSnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return nil, fmt.Errorf("%w network snapshot: %w", errFailedToUnmarshal, err)
		}

		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w network snapshot rows: %w", errFailedToScan, err)
	}

	return snaps, nil
}

// UpsertRegionSnapshot writes one region snapshot per (bucket, country),
// replacing on conflict like the network-level writer.
func (db *DB) UpsertRegionSnapshot(snap *models.RegionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w region snapshot: %w", errFailedToMarshal, err)
	}

	const query = `
		INSERT INTO region_history
			(bucket_key, country, country_code, bucket_time, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bucket_key, country) DO UPDATE SET
			country_code = ?,
			updated_at = ?,
			data = ?
	`

	_, err = db.Exec(query,
		snap.BucketKey, snap.Country, snap.CountryCode,
		snap.BucketTime, snap.CreatedAt, snap.UpdatedAt, string(data),
		snap.CountryCode, snap.UpdatedAt, string(data))
	if err != nil {
		return fmt.Errorf("%w region snapshot: %w", errFailedToInsert, err)
	}

	return nil
}

// GetRegionSnapshots returns a country's snapshots ordered oldest first.
// countryCode is an optional additional filter.
func (db *DB) GetRegionSnapshots(country, countryCode string, start, end time.Time) ([]models.RegionSnapshot, error) {
	query := "SELECT data FROM region_history WHERE country = ?"
	args := []interface{}{country}

	if countryCode != "" {
		query += " AND country_code = ?"
		args = append(args, countryCode)
	}

	if !start.IsZero() {
		query += " AND bucket_time >= ?"
		args = append(args, start)
	}

	if !end.IsZero() {
		query += " AND bucket_time <= ?"
		args = append(args, end)
	}

	query += " ORDER BY bucket_time ASC"

	rows, err := db.Query(query, args...) //nolint:rowserrcheck // rows.Close() is deferred
	if err != nil {
		return nil, fmt.Errorf("%w region snapshots: %w", errFailedToQuery, err)
	}
	defer closeRows(rows)

	var snaps []models.RegionSnapshot

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w region snapshot row: %w", errFailedToScan, err)
		}

		var snap models.RegionSnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return nil, fmt.Errorf("%w region snapshot: %w", errFailedToUnmarshal, err)
		}

		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w region snapshot rows: %w", errFailedToScan, err)
	}

	return snaps, nil
}

// GetRegionSnapshotBefore returns the most recent snapshot for a country
// strictly before the given bucket key, or (nil, nil) when none exists.
// Bucket keys sort lexicographically in time order.
func (db *DB) GetRegionSnapshotBefore(country, bucketKey string) (*models.RegionSnapshot, error) {
	const query = `
		SELECT data FROM region_history
		WHERE country = ? AND bucket_key < ?
		ORDER BY bucket_key DESC
		LIMIT 1
	`

	var data string

	err := db.QueryRow(query, country, bucketKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w previous region snapshot: %w", errFailedToQuery, err)
	}

	var snap models.RegionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("%w region snapshot: %w", errFailedToUnmarshal, err)
	}

	return &snap, nil
}

// AddNodeMetric appends one per-node time-series point.
func (db *DB) AddNodeMetric(point *models.NodeMetricPoint) error {
	data, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("%w node metric: %w", errFailedToMarshal, err)
	}

	const insertSQL = `
		INSERT INTO node_metrics (node_key, timestamp, data)
		VALUES (?, ?, ?)
	`

	if _, err := db.Exec(insertSQL, point.NodeKey, point.Timestamp, string(data)); err != nil {
		return fmt.Errorf("%w node metric: %w", errFailedToInsert, err)
	}

	return nil
}

// GetNodeMetrics returns a node's time-series points newest first.
func (db *DB) GetNodeMetrics(nodeKey string, start, end time.Time, limit int) ([]models.NodeMetricPoint, error) {
	query := "SELECT data FROM node_metrics WHERE node_key = ?"
	args := []interface{}{nodeKey}

	if !start.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, start)
	}

	if !end.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, end)
	}

	query += " ORDER BY timestamp DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...) //nolint:rowserrcheck // rows.Close() is deferred
	if err != nil {
		return nil, fmt.Errorf("%w node metrics: %w", errFailedToQuery, err)
	}
	defer closeRows(rows)

	var points []models.NodeMetricPoint

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w node metric row: %w", errFailedToScan, err)
		}

		var point models.NodeMetricPoint
		if err := json.Unmarshal([]byte(data), &point); err != nil {
			return nil, fmt.Errorf("%w node metric: %w", errFailedToUnmarshal, err)
		}

		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w node metric rows: %w", errFailedToScan, err)
	}

	return points, nil
}

// CleanOldData removes history rows older than the retention period. The
// registry itself is never cleaned; soft-down records stay forever.
func (db *DB) CleanOldData(retentionPeriod time.Duration) error {
	cutoff := time.Now().UTC().Add(-retentionPeriod)

	if _, err := db.Exec("DELETE FROM node_metrics WHERE timestamp < ?", cutoff); err != nil {
		return fmt.Errorf("%w node metrics: %w", errFailedToClean, err)
	}

	if _, err := db.Exec("DELETE FROM network_history WHERE bucket_time < ?", cutoff); err != nil {
		return fmt.Errorf("%w network history: %w", errFailedToClean, err)
	}

	if _, err := db.Exec("DELETE FROM region_history WHERE bucket_time < ?", cutoff); err != nil {
		return fmt.Errorf("%w region history: %w", errFailedToClean, err)
	}

	return nil
}
