package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

type provenanceKey struct {
	kind string
	path string
}

// alertRecord is an alert and the scan that first raised it.
type alertRecord struct {
	runID string
	alert types.Alert
}

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu         sync.RWMutex
	scans      map[string]*ScanRun              // keyed by scan ID
	blobs      map[types.BlobID]int64           // blob sizes
	alerts     map[string]alertRecord           // keyed by alert ID
	provenance map[types.BlobID][]provenanceKey // insertion order
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		scans:      make(map[string]*ScanRun),
		blobs:      make(map[types.BlobID]int64),
		alerts:     make(map[string]alertRecord),
		provenance: make(map[types.BlobID][]provenanceKey),
	}
}

// BeginScan records the start of a scan over root.
func (m *MemoryStore) BeginScan(root string) (*ScanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := newScanRun(root)
	stored := *run
	m.scans[run.ID] = &stored
	return run, nil
}

// FinishScan records the end time and counters of a scan.
func (m *MemoryStore) FinishScan(run *ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.scans[run.ID]
	if !ok {
		return fmt.Errorf("unknown scan %s", run.ID)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	stored.FinishedAt = run.FinishedAt
	stored.Blobs = run.Blobs
	stored.Alerts = run.Alerts
	return nil
}

// GetScans retrieves all scan runs, oldest first.
func (m *MemoryStore) GetScans() ([]*ScanRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*ScanRun, 0, len(m.scans))
	for _, run := range m.scans {
		c := *run
		runs = append(runs, &c)
	}
	slices.SortFunc(runs, func(a, b *ScanRun) int {
		return cmp.Or(a.StartedAt.Compare(b.StartedAt), cmp.Compare(a.ID, b.ID))
	})
	return runs, nil
}

// AddBlob stores a blob record.
func (m *MemoryStore) AddBlob(id types.BlobID, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blobs[id]; exists {
		// Idempotent - already exists
		return nil
	}
	m.blobs[id] = size
	return nil
}

// BlobExists checks if a blob has already been scanned.
func (m *MemoryStore) BlobExists(id types.BlobID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.blobs[id]
	return exists, nil
}

// AddProvenance associates provenance with a blob.
func (m *MemoryStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	key := provenanceKey{kind: prov.Kind(), path: prov.Path()}
	if _, err := provenanceFor(key.kind, key.path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.Contains(m.provenance[blobID], key) {
		return nil
	}
	m.provenance[blobID] = append(m.provenance[blobID], key)
	return nil
}

// GetProvenance retrieves every provenance recorded for a blob.
func (m *MemoryStore) GetProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provs := make([]types.Provenance, 0, len(m.provenance[blobID]))
	for _, key := range m.provenance[blobID] {
		prov, err := provenanceFor(key.kind, key.path)
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}
	return provs, nil
}

// AddAlert stores an alert raised by scan runID (deduplicated by alert ID).
func (m *MemoryStore) AddAlert(runID string, a *types.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.alerts[a.ID]; exists {
		// Deduplicate - already exists
		return nil
	}

	stored := *a
	stored.Provenance = nil
	m.alerts[a.ID] = alertRecord{runID: runID, alert: stored}
	return nil
}

// GetAlerts retrieves all alerts ordered by rule and path.
func (m *MemoryStore) GetAlerts() ([]*types.Alert, error) {
	return m.collectAlerts(func(alertRecord) bool { return true }), nil
}

// GetScanAlerts retrieves the alerts first raised by one scan run.
func (m *MemoryStore) GetScanAlerts(runID string) ([]*types.Alert, error) {
	return m.collectAlerts(func(r alertRecord) bool { return r.runID == runID }), nil
}

func (m *MemoryStore) collectAlerts(keep func(alertRecord) bool) []*types.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := []*types.Alert{}
	for _, r := range m.alerts {
		if keep(r) {
			a := r.alert
			alerts = append(alerts, &a)
		}
	}
	slices.SortFunc(alerts, func(a, b *types.Alert) int {
		return cmp.Or(
			cmp.Compare(a.RuleID, b.RuleID),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return alerts
}

// AlertExists checks if an alert with this ID exists.
func (m *MemoryStore) AlertExists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.alerts[id]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
