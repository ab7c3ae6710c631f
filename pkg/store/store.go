// Package store persists scan runs and the alerts they raise.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// MemoryPath selects the in-memory backend.
const MemoryPath = ":memory:"

// Store provides persistence for scan results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (SQLite, in-memory).
type Store interface {
	// BeginScan records the start of a scan over root.
	BeginScan(root string) (*ScanRun, error)

	// FinishScan records the end time and counters of a scan.
	FinishScan(run *ScanRun) error

	// GetScans retrieves all scan runs, oldest first.
	GetScans() ([]*ScanRun, error)

	// AddBlob stores a blob record.
	AddBlob(id types.BlobID, size int64) error

	// BlobExists checks if a blob has already been scanned.
	BlobExists(id types.BlobID) (bool, error)

	// AddProvenance associates provenance with a blob.
	AddProvenance(blobID types.BlobID, prov types.Provenance) error

	// GetProvenance retrieves every provenance recorded for a blob.
	GetProvenance(blobID types.BlobID) ([]types.Provenance, error)

	// AddAlert stores an alert raised by scan runID (deduplicated by alert ID).
	AddAlert(runID string, a *types.Alert) error

	// GetAlerts retrieves all alerts ordered by rule and path.
	GetAlerts() ([]*types.Alert, error)

	// GetScanAlerts retrieves the alerts first raised by one scan run.
	GetScanAlerts(runID string) ([]*types.Alert, error)

	// AlertExists checks if an alert with this ID exists.
	AlertExists(id string) (bool, error)

	// Close closes the underlying storage.
	Close() error
}

// ScanRun describes one invocation of a scan.
type ScanRun struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Blobs      int       `json:"blobs"`
	Alerts     int       `json:"alerts"`
}

// Finished reports whether FinishScan has been recorded for the run.
func (r *ScanRun) Finished() bool {
	return !r.FinishedAt.IsZero()
}

func newScanRun(root string) *ScanRun {
	return &ScanRun{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for the in-memory backend (useful for testing).
	Path string
}

// New creates a store. ":memory:" selects MemoryStore; any other path
// opens (or creates) a SQLite database.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}

// provenanceFor rebuilds a provenance from its stored kind and path.
func provenanceFor(kind, path string) (types.Provenance, error) {
	switch kind {
	case "file":
		return types.FileProvenance{FilePath: path}, nil
	case "buffer":
		return types.BufferProvenance{Label: path}, nil
	default:
		return nil, fmt.Errorf("unknown provenance type: %s", kind)
	}
}
