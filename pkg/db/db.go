// Package db pkg/db/db.go provides SQLite storage for the node registry
// and the bucketed snapshot history.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const createTablesSQL = `
	-- Current node registry, one row per participant. node_key is the
	-- identity key when known, otherwise the network address.
	CREATE TABLE IF NOT EXISTS registry (
		node_key TEXT PRIMARY KEY,
		identity_key TEXT NOT NULL DEFAULT '',
		network_address TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		country_code TEXT NOT NULL DEFAULT '',
		seen_in_gossip BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		data TEXT NOT NULL
	);

	-- Network-wide aggregates, one row per time bucket.
	CREATE TABLE IF NOT EXISTS network_history (
		bucket_key TEXT PRIMARY KEY,
		bucket_time TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		data TEXT NOT NULL
	);

	-- Per-country aggregates, one row per (bucket, country).
	CREATE TABLE IF NOT EXISTS region_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bucket_key TEXT NOT NULL,
		country TEXT NOT NULL,
		country_code TEXT NOT NULL DEFAULT '',
		bucket_time TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		data TEXT NOT NULL,
		UNIQUE(bucket_key, country)
	);

	-- Per-node time series, appended once per cycle.
	CREATE TABLE IF NOT EXISTS node_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node_key TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_registry_address
		ON registry(network_address);
	CREATE INDEX IF NOT EXISTS idx_registry_identity
		ON registry(identity_key);
	CREATE INDEX IF NOT EXISTS idx_network_history_time
		ON network_history(bucket_time);
	CREATE INDEX IF NOT EXISTS idx_region_history_country_time
		ON region_history(country, bucket_time);
	CREATE INDEX IF NOT EXISTS idx_node_metrics_key_time
		ON node_metrics(node_key, timestamp);

	PRAGMA foreign_keys=ON;
	`

// DB represents the database connection and operations.
type DB struct {
	*sql.DB
}

// New creates a new database connection and initializes the schema.
func New(dbPath string) (Service, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedOpenDB, err)
	}

	// WAL mode for better concurrent reads while a cycle is writing.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToEnableWAL, err)
	}

	db := &DB{sqlDB}
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToInit, err)
	}

	return db, nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	_, err := db.Exec(createTablesSQL)

	return err
}
