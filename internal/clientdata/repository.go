// Package clientdata provides persistent caching for upstream API responses.
// Raw documents are stored as JSON blobs and analysis snapshots as msgpack
// blobs, both with expiration timestamps for cache-first behavior.
package clientdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/finboard/finboard/internal/domain"
)

// AllTables lists all tables in cache.db for cleanup operations.
var AllTables = []string{
	"iris_documents",
	"analysis_snapshots",
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Repository provides cache operations for upstream documents and their
// derived analysis snapshots, keyed by the requested date-range expression.
type Repository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewRepository creates a cache repository. ttl governs how long stored
// entries stay fresh; zero falls back to the per-table defaults.
func NewRepository(db *sql.DB, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl}
}

func (r *Repository) ttlFor(table string) time.Duration {
	if r.ttl != 0 {
		return r.ttl
	}
	return defaultTTLs[table]
}

// validateTable ensures the table name is in our allowed list.
// This prevents SQL injection through table names.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// store saves a blob with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) store(table, rangeKey string, blob []byte) error {
	if err := validateTable(table); err != nil {
		return err
	}

	expiresAt := time.Now().Add(r.ttlFor(table)).Unix()

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (range_key, data, expires_at) VALUES (?, ?, ?)",
		table,
	)

	_, err := r.db.Exec(query, rangeKey, blob, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// getIfFresh returns a blob only if expires_at > now.
// Returns nil, nil if the key doesn't exist or the entry is expired.
func (r *Repository) getIfFresh(table, rangeKey string) ([]byte, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	now := time.Now().Unix()

	query := fmt.Sprintf(
		"SELECT data FROM %s WHERE range_key = ? AND expires_at > ?",
		table,
	)

	var blob []byte
	err := r.db.QueryRow(query, rangeKey, now).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	return blob, nil
}

// Document returns the cached raw document for a date range, or nil on a
// miss or expired entry.
func (r *Repository) Document(rangeKey string) ([]byte, error) {
	return r.getIfFresh("iris_documents", rangeKey)
}

// SaveDocument caches the raw document for a date range.
func (r *Repository) SaveDocument(rangeKey string, raw []byte) error {
	return r.store("iris_documents", rangeKey, raw)
}

// Snapshot returns the cached analysis for a date range, or nil on a miss.
// Snapshots are stored msgpack-encoded.
func (r *Repository) Snapshot(rangeKey string) (*domain.DataAnalysis, error) {
	blob, err := r.getIfFresh("analysis_snapshots", rangeKey)
	if err != nil || blob == nil {
		return nil, err
	}

	var snap domain.DataAnalysis
	if err := msgpack.Unmarshal(blob, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode analysis snapshot: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot caches the analysis for a date range.
func (r *Repository) SaveSnapshot(rangeKey string, a *domain.DataAnalysis) error {
	blob, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode analysis snapshot: %w", err)
	}
	return r.store("analysis_snapshots", rangeKey, blob)
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, rangeKey string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE range_key = ?", table)

	_, err := r.db.Exec(query, rangeKey)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	now := time.Now().Unix()

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}

	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, fmt.Errorf("failed to delete expired from %s: %w", table, err)
		}
		results[table] = deleted
	}

	return results, nil
}
