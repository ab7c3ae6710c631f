package store

import (
	"database/sql"
	"fmt"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	ScansMerged      int
	BlobsMerged      int
	AlertsMerged     int
	ProvenanceMerged int
	SourcesProcessed int
}

// Merge combines several scan databases into one.
// Deduplication is handled via INSERT OR IGNORE on primary and unique keys.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	// Open/create destination database
	destDB, err := openSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	stats := &MergeStats{}

	// Process each source database
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.ScansMerged += sourceStats.ScansMerged
		stats.BlobsMerged += sourceStats.BlobsMerged
		stats.AlertsMerged += sourceStats.AlertsMerged
		stats.ProvenanceMerged += sourceStats.ProvenanceMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// copySpec describes one table copied by mergeFrom.
type copySpec struct {
	table   string
	columns string
	count   func(*MergeStats) *int
}

// Tables in foreign-key order.
var mergeTables = []copySpec{
	{"scans", "id, root, started_at, finished_at, blobs, alerts", func(s *MergeStats) *int { return &s.ScansMerged }},
	{"blobs", "id, size", func(s *MergeStats) *int { return &s.BlobsMerged }},
	{"alerts", "id, scan_id, blob_id, rule_id, rule_name, structural_id, pattern, threshold, count, verdict, path", func(s *MergeStats) *int { return &s.AlertsMerged }},
	{"provenance", "blob_id, type, path", func(s *MergeStats) *int { return &s.ProvenanceMerged }},
}

// mergeFrom copies data from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string) (*MergeStats, error) {
	// Open source database; this also rejects sources with another schema version.
	sourceDB, err := openSQLite(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	stats := &MergeStats{}

	// Start transaction for efficiency
	tx, err := destDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, spec := range mergeTables {
		n, err := copyTable(tx, sourceDB, spec)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", spec.table, err)
		}
		*spec.count(stats) = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return stats, nil
}

func copyTable(tx *sql.Tx, sourceDB *sql.DB, spec copySpec) (int, error) {
	rows, err := sourceDB.Query(fmt.Sprintf("SELECT %s FROM %s", spec.columns, spec.table))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	placeholders := "?"
	for range cols[1:] {
		placeholders += ", ?"
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", spec.table, spec.columns, placeholders))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
