package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

func TestMerge_EmptySources(t *testing.T) {
	_, err := Merge(MergeConfig{
		SourcePaths: []string{},
		DestPath:    filepath.Join(t.TempDir(), "dest.db"),
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no source databases")
}

func TestMerge_NoDestination(t *testing.T) {
	_, err := Merge(MergeConfig{
		SourcePaths: []string{"source.db"},
		DestPath:    "",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "destination path is required")
}

// seed creates a database holding one finished scan with the given alerts.
func seed(t *testing.T, path string, alerts ...*types.Alert) *ScanRun {
	t.Helper()
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.BeginScan("/data")
	require.NoError(t, err)
	for _, a := range alerts {
		require.NoError(t, s.AddBlob(a.BlobID, 1))
		require.NoError(t, s.AddProvenance(a.BlobID, types.FileProvenance{FilePath: a.Path}))
		require.NoError(t, s.AddAlert(run.ID, a))
	}
	run.Alerts = len(alerts)
	require.NoError(t, s.FinishScan(run))
	return run
}

func TestMerge_SingleSource(t *testing.T) {
	tmpDir := t.TempDir()
	sourcePath := filepath.Join(tmpDir, "source.db")
	alert := testAlert("sd.credit_card.1", "/data/a.txt", []byte("a"))
	run := seed(t, sourcePath, alert)

	destPath := filepath.Join(tmpDir, "dest.db")
	stats, err := Merge(MergeConfig{SourcePaths: []string{sourcePath}, DestPath: destPath})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ScansMerged)
	assert.Equal(t, 1, stats.BlobsMerged)
	assert.Equal(t, 1, stats.AlertsMerged)
	assert.Equal(t, 1, stats.ProvenanceMerged)
	assert.Equal(t, 1, stats.SourcesProcessed)

	dest, err := NewSQLite(destPath)
	require.NoError(t, err)
	defer dest.Close()

	runs, err := dest.GetScans()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 1, runs[0].Alerts)

	alerts, err := dest.GetScanAlerts(run.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, alert.ID, alerts[0].ID)
}

func TestMerge_Deduplicates(t *testing.T) {
	tmpDir := t.TempDir()
	shared := testAlert("sd.credit_card.1", "/data/a.txt", []byte("a"))
	only := testAlert("sd.us_social.1", "/data/b.txt", []byte("b"))

	src1 := filepath.Join(tmpDir, "one.db")
	src2 := filepath.Join(tmpDir, "two.db")
	seed(t, src1, shared)
	seed(t, src2, shared, only)

	destPath := filepath.Join(tmpDir, "dest.db")
	stats, err := Merge(MergeConfig{SourcePaths: []string{src1, src2}, DestPath: destPath})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SourcesProcessed)
	assert.Equal(t, 2, stats.ScansMerged)
	assert.Equal(t, 2, stats.BlobsMerged)
	assert.Equal(t, 2, stats.AlertsMerged)

	// merging again adds nothing
	stats, err = Merge(MergeConfig{SourcePaths: []string{src2}, DestPath: destPath})
	require.NoError(t, err)
	assert.Zero(t, stats.AlertsMerged)
	assert.Zero(t, stats.ScansMerged)

	dest, err := NewSQLite(destPath)
	require.NoError(t, err)
	defer dest.Close()

	alerts, err := dest.GetAlerts()
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestMerge_MissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := Merge(MergeConfig{
		SourcePaths: []string{filepath.Join(tmpDir, "missing", "nope.db")},
		DestPath:    filepath.Join(tmpDir, "dest.db"),
	})
	assert.Error(t, err)
}
