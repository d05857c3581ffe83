package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
)

// CreateNode inserts a brand-new registry row. The caller is responsible
// for deciding the insert-vs-update branch; see UpdateNode.
func (db *DB) CreateNode(node *models.NodeRecord) error {
	if !node.Valid() {
		return fmt.Errorf("%w: no identity key or network address", errInvalidRecord)
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("%w node: %w", errFailedToMarshal, err)
	}

	const insertSQL = `
		INSERT INTO registry
			(node_key, identity_key, network_address, country, country_code,
			 seen_in_gossip, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.Exec(insertSQL,
		node.Key(), node.IdentityKey, node.NetworkAddress,
		node.Country, node.CountryCode,
		node.SeenInGossip, node.CreatedAt, node.UpdatedAt, string(data))
	if err != nil {
		return fmt.Errorf("%w node: %w", errFailedToInsert, err)
	}

	return nil
}

// UpdateNode overwrites an existing registry row in place.
func (db *DB) UpdateNode(node *models.NodeRecord) error {
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("%w node: %w", errFailedToMarshal, err)
	}

	const updateSQL = `
		UPDATE registry
		SET identity_key = ?,
			network_address = ?,
			country = ?,
			country_code = ?,
			seen_in_gossip = ?,
			updated_at = ?,
			data = ?
		WHERE node_key = ?
	`

	result, err := db.Exec(updateSQL,
		node.IdentityKey, node.NetworkAddress,
		node.Country, node.CountryCode,
		node.SeenInGossip, node.UpdatedAt, string(data), node.Key())
	if err != nil {
		return fmt.Errorf("%w node: %w", errFailedToUpdate, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w node: %w", errFailedToUpdate, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w node %s: %w", errFailedToUpdate, node.Key(), sql.ErrNoRows)
	}

	return nil
}

// DeleteNode removes a registry row by key. Deleting a missing key is not
// an error; reconciliation cleanup races are expected.
func (db *DB) DeleteNode(key string) error {
	_, err := db.Exec("DELETE FROM registry WHERE node_key = ?", key)
	if err != nil {
		return fmt.Errorf("%w node %s: %w", errFailedToDelete, key, err)
	}

	return nil
}

// GetNode returns the registry row for a key, or (nil, nil) when absent.
func (db *DB) GetNode(key string) (*models.NodeRecord, error) {
	const query = `
		SELECT seen_in_gossip, created_at, updated_at, data
		FROM registry
		WHERE node_key = ?
	`

	node, err := scanNodeRow(db.QueryRow(query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w node %s: %w", errFailedToQuery, key, err)
	}

	return node, nil
}

// GetNodesByAddress returns every registry row reporting the given network
// address. More than one row can match transiently while an identity
// migration is in flight.
func (db *DB) GetNodesByAddress(address string) ([]models.NodeRecord, error) {
	const query = `
		SELECT seen_in_gossip, created_at, updated_at, data
		FROM registry
		WHERE network_address = ?
		ORDER BY identity_key DESC
	`

	rows, err := db.Query(query, address) //nolint:rowserrcheck // rows.Close() is deferred
	if err != nil {
		return nil, fmt.Errorf("%w nodes by address: %w", errFailedToQuery, err)
	}
	defer closeRows(rows)

	return scanNodeRows(rows)
}

// ListNodes returns the full current registry.
func (db *DB) ListNodes() ([]models.NodeRecord, error) {
	const query = `
		SELECT seen_in_gossip, created_at, updated_at, data
		FROM registry
		ORDER BY node_key
	`

	rows, err := db.Query(query) //nolint:rowserrcheck // rows.Close() is deferred
	if err != nil {
		return nil, fmt.Errorf("%w nodes: %w", errFailedToQuery, err)
	}
	defer closeRows(rows)

	return scanNodeRows(rows)
}

// sweepKeyChunk bounds the SQL parameters per statement so the sweep
// stays well under SQLite's variable limit on very large networks.
const sweepKeyChunk = 500

// MarkUnseenExcept flips seen_in_gossip off for every registry row whose
// key is not in the given set. It returns the number of rows swept.
// Records are only ever marked, never deleted, when a cycle misses them.
func (db *DB) MarkUnseenExcept(keys []string) (int64, error) {
	now := time.Now().UTC()

	if len(keys) > sweepKeyChunk {
		return db.sweepChunked(keys, now)
	}

	query := "UPDATE registry SET seen_in_gossip = 0, updated_at = ? WHERE seen_in_gossip = 1"
	args := []interface{}{now}

	if len(keys) > 0 {
		query += " AND node_key NOT IN (" + placeholders(len(keys)) + ")"
		for _, key := range keys {
			args = append(args, key)
		}
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	swept, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	return swept, nil
}

// sweepChunked stages the seen keys into a temp table in bounded batches,
// then runs the sweep as a single NOT IN subquery.
func (db *DB) sweepChunked(keys []string, now time.Time) (swept int64, err error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("failed to rollback unseen sweep: %v", rbErr)
			}
		}
	}()

	if _, err = tx.Exec("CREATE TEMP TABLE sweep_seen_keys (node_key TEXT PRIMARY KEY)"); err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	for start := 0; start < len(keys); start += sweepKeyChunk {
		end := start + sweepKeyChunk
		if end > len(keys) {
			end = len(keys)
		}

		chunk := keys[start:end]

		args := make([]interface{}, 0, len(chunk))
		for _, key := range chunk {
			args = append(args, key)
		}

		insertSQL := "INSERT OR IGNORE INTO sweep_seen_keys (node_key) VALUES " + valueRows(len(chunk))
		if _, err = tx.Exec(insertSQL, args...); err != nil {
			return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
		}
	}

	const sweepSQL = `
		UPDATE registry SET seen_in_gossip = 0, updated_at = ?
		WHERE seen_in_gossip = 1
		  AND node_key NOT IN (SELECT node_key FROM sweep_seen_keys)
	`

	result, err := tx.Exec(sweepSQL, now)
	if err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	swept, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	// Temp tables live for the connection, not the transaction.
	if _, err = tx.Exec("DROP TABLE sweep_seen_keys"); err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w unseen sweep: %w", errFailedToUpdate, err)
	}

	return swept, nil
}

// DeleteAddressOnlyDuplicates removes every address-keyed row whose
// address is now owned by an identity-keyed row. It backstops the
// migration step against races within a large batch.
func (db *DB) DeleteAddressOnlyDuplicates() (int64, error) {
	const deleteSQL = `
		DELETE FROM registry
		WHERE identity_key = ''
		  AND network_address != ''
		  AND network_address IN (
			SELECT network_address FROM registry
			WHERE identity_key != '' AND network_address != ''
		  )
	`

	result, err := db.Exec(deleteSQL)
	if err != nil {
		return 0, fmt.Errorf("%w address-only duplicates: %w", errFailedToDelete, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w address-only duplicates: %w", errFailedToDelete, err)
	}

	return deleted, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanNodeRow rebuilds a NodeRecord from the JSON document plus the
// indexed bookkeeping columns. The columns win over the document: the
// unseen sweep updates them without rewriting the JSON.
func scanNodeRow(row rowScanner) (*models.NodeRecord, error) {
	var (
		seen      bool
		createdAt time.Time
		updatedAt time.Time
		data      string
	)

	if err := row.Scan(&seen, &createdAt, &updatedAt, &data); err != nil {
		return nil, err
	}

	var node models.NodeRecord
	if err := json.Unmarshal([]byte(data), &node); err != nil {
		return nil, fmt.Errorf("%w node: %w", errFailedToUnmarshal, err)
	}

	node.SeenInGossip = seen
	node.CreatedAt = createdAt
	node.UpdatedAt = updatedAt

	return &node, nil
}

func scanNodeRows(rows *sql.Rows) ([]models.NodeRecord, error) {
	var nodes []models.NodeRecord

	for rows.Next() {
		node, err := scanNodeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w node row: %w", errFailedToScan, err)
		}

		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w node rows: %w", errFailedToScan, err)
	}

	return nodes, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func valueRows(n int) string {
	return strings.TrimSuffix(strings.Repeat("(?),", n), ",")
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("failed to close rows: %v", err)
	}
}
