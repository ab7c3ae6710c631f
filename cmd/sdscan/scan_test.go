package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagardeyrakesh/sdpattern/pkg/store"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// resetScanFlags restores scan flag defaults between tests.
func resetScanFlags(outputPath string) {
	scanRulesPath = ""
	scanRuleset = ""
	scanRulesInclude = ""
	scanRulesExclude = ""
	scanOutputPath = outputPath
	scanOutputFormat = "human"
	scanColor = "never"
	scanWorkers = 2
	scanMaxFileSize = 10 * 1024 * 1024
	scanIncludeHidden = false
	scanIncludeBinary = false
	scanIncremental = false
	scanMetrics = false
	scanFoldKeywords = false
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func decodeAlerts(t *testing.T, data []byte) []*types.Alert {
	t.Helper()
	var alerts []*types.Alert
	require.NoError(t, json.Unmarshal(data, &alerts))
	return alerts
}

func ruleIDs(alerts []*types.Alert) []string {
	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.RuleID
	}
	return ids
}

func TestRunScan_BuiltinRules(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "order.txt", "visa 4111 1111 1111 1111 exp 12/29")
	writeTestFile(t, tmpDir, "notes.txt", "nothing to see here")

	resetScanFlags(store.MemoryPath)
	scanOutputFormat = "json"

	cmd, stdout, stderr := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))

	alerts := decodeAlerts(t, stdout.Bytes())
	require.Len(t, alerts, 1)
	assert.Equal(t, "sd.credit_card.1", alerts[0].RuleID)
	assert.Equal(t, filepath.Join(tmpDir, "order.txt"), alerts[0].Path)
	assert.Equal(t, 1, alerts[0].Count)
	assert.Equal(t, types.Match, alerts[0].Verdict)

	assert.Contains(t, stderr.String(), "Scan complete: 2 blobs, 1 alerts")
}

func TestRunScan_Threshold(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "dump.csv", "4111111111111111,5500000000000004,378282246310005")

	resetScanFlags(store.MemoryPath)
	scanOutputFormat = "json"
	scanRuleset = "pci"

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))

	alerts := decodeAlerts(t, stdout.Bytes())
	assert.ElementsMatch(t, []string{"sd.credit_card.1", "sd.credit_card.bulk.1"}, ruleIDs(alerts))
	for _, a := range alerts {
		assert.LessOrEqual(t, a.Count, a.Threshold)
	}
}

func TestRunScan_CustomRules(t *testing.T) {
	tmpDir := t.TempDir()
	rulesFile := writeTestFile(t, tmpDir, "rules.yaml", `rules:
  - id: test.badge.1
    name: Badge number
    pattern: '"B-\d{5}"'
    threshold: 2
`)
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.Mkdir(dataDir, 0755))
	writeTestFile(t, dataDir, "one.txt", "B-12345")
	writeTestFile(t, dataDir, "two.txt", "B-12345 and B-54321")

	resetScanFlags(store.MemoryPath)
	scanRulesPath = rulesFile
	scanOutputFormat = "json"

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{dataDir}))

	alerts := decodeAlerts(t, stdout.Bytes())
	require.Len(t, alerts, 1)
	assert.Equal(t, "test.badge.1", alerts[0].RuleID)
	assert.Equal(t, filepath.Join(dataDir, "two.txt"), alerts[0].Path)
	assert.Equal(t, 2, alerts[0].Count)
}

func TestRunScan_IdenticalFiles(t *testing.T) {
	tmpDir := t.TempDir()
	content := "card 4111 1111 1111 1111 here"
	writeTestFile(t, tmpDir, "a.txt", content)
	writeTestFile(t, tmpDir, "b.txt", content)

	resetScanFlags(store.MemoryPath)
	scanOutputFormat = "json"
	scanRulesInclude = `^sd\.credit_card\.1$`

	cmd, stdout, stderr := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))

	alerts := decodeAlerts(t, stdout.Bytes())
	require.Len(t, alerts, 2)
	assert.Equal(t, alerts[0].BlobID, alerts[1].BlobID)
	assert.NotEqual(t, alerts[0].ID, alerts[1].ID)

	paths := []string{alerts[0].Path, alerts[1].Path}
	assert.ElementsMatch(t, []string{filepath.Join(tmpDir, "a.txt"), filepath.Join(tmpDir, "b.txt")}, paths)
	assert.Contains(t, stderr.String(), "Scan complete: 2 blobs, 2 alerts")
}

func TestRunScan_RescanCountsStoredAlerts(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.Mkdir(dataDir, 0755))
	writeTestFile(t, dataDir, "a.txt", "card 4111 1111 1111 1111 here")
	dbPath := filepath.Join(tmpDir, "scan.db")

	resetScanFlags(dbPath)
	scanOutputFormat = "json"
	scanRulesInclude = `^sd\.credit_card\.1$`
	cmd, stdout, stderr := newTestCmd()
	require.NoError(t, runScan(cmd, []string{dataDir}))
	assert.Len(t, decodeAlerts(t, stdout.Bytes()), 1)
	assert.Contains(t, stderr.String(), "Scan complete: 1 blobs, 1 alerts")

	// The same alert was stored by the first run, so the second raises none.
	resetScanFlags(dbPath)
	scanOutputFormat = "json"
	scanRulesInclude = `^sd\.credit_card\.1$`
	cmd, stdout, stderr = newTestCmd()
	require.NoError(t, runScan(cmd, []string{dataDir}))
	assert.Empty(t, decodeAlerts(t, stdout.Bytes()))
	assert.Contains(t, stderr.String(), "Scan complete: 1 blobs, 0 alerts")
}

func TestRunScan_Stdin(t *testing.T) {
	resetScanFlags(store.MemoryPath)
	scanOutputFormat = "json"
	scanRuleset = "pii"

	cmd, stdout, _ := newTestCmd()
	cmd.SetIn(strings.NewReader("employee 234-56-7890 hired"))
	require.NoError(t, runScan(cmd, []string{"-"}))

	alerts := decodeAlerts(t, stdout.Bytes())
	require.Len(t, alerts, 1)
	assert.Equal(t, "sd.us_social.1", alerts[0].RuleID)
	assert.Equal(t, "stdin", alerts[0].Path)
}

func TestRunScan_HumanOutput(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "a.txt", "SSN: 123-45-6789")

	resetScanFlags(store.MemoryPath)
	scanRuleset = "pii"

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))

	output := stdout.String()
	assert.Contains(t, output, "Scan complete: 1 blobs, 1 alerts")
	assert.Contains(t, output, "Alert 1/1")
	assert.Contains(t, output, "Rule: U.S. Social Security Number (sd.us_social.1)")
	assert.Contains(t, output, "Count: 1/1 pattern us_social")
}

func TestRunScan_NoAlerts(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "a.txt", "nothing")

	resetScanFlags(store.MemoryPath)
	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))
	assert.Contains(t, stdout.String(), "No alerts.")
}

func TestRunScan_SARIF(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "a.txt", "amex: 378282246310005")

	resetScanFlags(store.MemoryPath)
	scanOutputFormat = "sarif"
	scanRuleset = "pci"

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))

	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "2.1.0", report["version"])
	run := report["runs"].([]any)[0].(map[string]any)
	assert.Len(t, run["results"], 1)
}

func TestRunScan_Metrics(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "a.txt", "4111 1111 1111 1111")

	resetScanFlags(store.MemoryPath)
	scanMetrics = true
	scanRuleset = "pci"

	cmd, _, stderr := newTestCmd()
	require.NoError(t, runScan(cmd, []string{tmpDir}))

	metrics := stderr.String()
	assert.Contains(t, metrics, `sdpattern_buffers_total{pattern="credit_card",threshold="1"} 1`)
	assert.Contains(t, metrics, `sdpattern_alerts_total{rule_id="sd.credit_card.1"} 1`)
	assert.Contains(t, metrics, "sdpattern_files_scanned_total 1")
}

func TestRunScan_PersistsAndIncremental(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.Mkdir(dataDir, 0755))
	writeTestFile(t, dataDir, "a.txt", "SSN: 123-45-6789")
	dbPath := filepath.Join(tmpDir, "scan.db")

	resetScanFlags(dbPath)
	scanRuleset = "pii"
	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runScan(cmd, []string{dataDir}))
	assert.Contains(t, stdout.String(), "Results stored in: "+dbPath)

	resetScanFlags(dbPath)
	scanRuleset = "pii"
	scanIncremental = true
	cmd, stdout, _ = newTestCmd()
	require.NoError(t, runScan(cmd, []string{dataDir}))
	assert.Contains(t, stdout.String(), "Scan complete: 0 blobs, 0 alerts (1 blobs skipped)")

	s, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.GetScans()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.True(t, run.Finished())
	}

	alerts, err := s.GetAlerts()
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestRunScanInvalidTarget(t *testing.T) {
	resetScanFlags(store.MemoryPath)
	cmd, _, _ := newTestCmd()

	err := runScan(cmd, []string{"/nonexistent/path"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target does not exist")
}

func TestRunScan_InvalidFlags(t *testing.T) {
	tmpDir := t.TempDir()

	resetScanFlags(store.MemoryPath)
	scanWorkers = 0
	cmd, _, _ := newTestCmd()
	assert.ErrorContains(t, runScan(cmd, []string{tmpDir}), "--workers must be at least 1")

	resetScanFlags(store.MemoryPath)
	scanOutputFormat = "xml"
	assert.ErrorContains(t, runScan(cmd, []string{tmpDir}), "unknown output format")

	resetScanFlags(store.MemoryPath)
	scanRulesInclude = "^nothing-matches$"
	assert.ErrorContains(t, runScan(cmd, []string{tmpDir}), "no rules selected")

	resetScanFlags(store.MemoryPath)
	scanRuleset = "missing"
	assert.ErrorContains(t, runScan(cmd, []string{tmpDir}), "unknown ruleset")
}

func TestRunScan_InvalidRule(t *testing.T) {
	tmpDir := t.TempDir()
	rulesFile := writeTestFile(t, tmpDir, "bad.yaml", `rules:
  - id: test.bad.1
    name: Bad
    pattern: '"\d{2,1}"'
`)

	resetScanFlags(store.MemoryPath)
	scanRulesPath = rulesFile
	cmd, _, _ := newTestCmd()

	err := runScan(cmd, []string{tmpDir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling rules")
	assert.ErrorIs(t, err, types.ErrCompile)
}
