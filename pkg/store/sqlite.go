package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// BeginScan records the start of a scan over root.
func (s *SQLiteStore) BeginScan(root string) (*ScanRun, error) {
	run := newScanRun(root)
	_, err := s.db.Exec("INSERT INTO scans (id, root, started_at) VALUES (?, ?, ?)",
		run.ID, run.Root, formatTime(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting scan: %w", err)
	}
	return run, nil
}

// FinishScan records the end time and counters of a scan.
func (s *SQLiteStore) FinishScan(run *ScanRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	result, err := s.db.Exec("UPDATE scans SET finished_at = ?, blobs = ?, alerts = ? WHERE id = ?",
		formatTime(run.FinishedAt), run.Blobs, run.Alerts, run.ID)
	if err != nil {
		return fmt.Errorf("updating scan: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("unknown scan %s", run.ID)
	}
	return nil
}

// GetScans retrieves all scan runs, oldest first.
func (s *SQLiteStore) GetScans() ([]*ScanRun, error) {
	rows, err := s.db.Query(`
		SELECT id, root, started_at, finished_at, blobs, alerts
		FROM scans
		ORDER BY started_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var runs []*ScanRun
	for rows.Next() {
		var run ScanRun
		var started string
		var finished sql.NullString
		if err := rows.Scan(&run.ID, &run.Root, &started, &finished, &run.Blobs, &run.Alerts); err != nil {
			return nil, fmt.Errorf("scanning scan: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			if run.FinishedAt, err = parseTime(finished.String); err != nil {
				return nil, err
			}
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scans: %w", err)
	}

	return runs, nil
}

// AddBlob stores a blob record.
func (s *SQLiteStore) AddBlob(id types.BlobID, size int64) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO blobs (id, size) VALUES (?, ?)", id.Hex(), size)
	if err != nil {
		return fmt.Errorf("inserting blob: %w", err)
	}
	return nil
}

// BlobExists checks if a blob has already been scanned.
func (s *SQLiteStore) BlobExists(id types.BlobID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM blobs WHERE id = ?", id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking blob existence: %w", err)
	}
	return count > 0, nil
}

// AddProvenance associates provenance with a blob.
func (s *SQLiteStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	if _, err := provenanceFor(prov.Kind(), prov.Path()); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO provenance (blob_id, type, path)
		VALUES (?, ?, ?)
	`,
		blobID.Hex(),
		prov.Kind(),
		prov.Path(),
	)
	if err != nil {
		return fmt.Errorf("inserting provenance: %w", err)
	}

	return nil
}

// GetProvenance retrieves every provenance recorded for a blob.
func (s *SQLiteStore) GetProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	rows, err := s.db.Query("SELECT type, path FROM provenance WHERE blob_id = ? ORDER BY id", blobID.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	provs := []types.Provenance{}
	for rows.Next() {
		var kind, path string
		if err := rows.Scan(&kind, &path); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		prov, err := provenanceFor(kind, path)
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provenance: %w", err)
	}

	return provs, nil
}

// AddAlert stores an alert raised by scan runID (deduplicated by alert ID).
func (s *SQLiteStore) AddAlert(runID string, a *types.Alert) error {
	verdict, err := a.Verdict.MarshalText()
	if err != nil {
		return fmt.Errorf("marshaling verdict: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO alerts
		(id, scan_id, blob_id, rule_id, rule_name, structural_id, pattern, threshold, count, verdict, path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		runID,
		a.BlobID.Hex(),
		a.RuleID,
		a.RuleName,
		a.StructuralID,
		a.Pattern,
		a.Threshold,
		a.Count,
		string(verdict),
		a.Path,
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}

	return nil
}

const alertColumns = `id, blob_id, rule_id, rule_name, structural_id, pattern, threshold, count, verdict, path`

// GetAlerts retrieves all alerts ordered by rule and path.
func (s *SQLiteStore) GetAlerts() ([]*types.Alert, error) {
	return s.queryAlerts("SELECT " + alertColumns + " FROM alerts ORDER BY rule_id, path, id")
}

// GetScanAlerts retrieves the alerts first raised by one scan run.
func (s *SQLiteStore) GetScanAlerts(runID string) ([]*types.Alert, error) {
	return s.queryAlerts("SELECT "+alertColumns+" FROM alerts WHERE scan_id = ? ORDER BY rule_id, path, id", runID)
}

func (s *SQLiteStore) queryAlerts(query string, args ...any) ([]*types.Alert, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*types.Alert{}
	for rows.Next() {
		var a types.Alert
		var blobIDHex, verdict string
		var path sql.NullString

		err := rows.Scan(
			&a.ID,
			&blobIDHex,
			&a.RuleID,
			&a.RuleName,
			&a.StructuralID,
			&a.Pattern,
			&a.Threshold,
			&a.Count,
			&verdict,
			&path,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}

		// Parse blob ID
		if a.BlobID, err = types.ParseBlobID(blobIDHex); err != nil {
			return nil, fmt.Errorf("parsing blob ID: %w", err)
		}
		if err := a.Verdict.UnmarshalText([]byte(verdict)); err != nil {
			return nil, err
		}
		a.Path = path.String

		alerts = append(alerts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}

	return alerts, nil
}

// AlertExists checks if an alert with this ID exists.
func (s *SQLiteStore) AlertExists(id string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM alerts WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking alert existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
