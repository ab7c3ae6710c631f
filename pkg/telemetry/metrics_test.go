package telemetry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagardeyrakesh/sdpattern/pkg/matcher"
)

func TestRecordStats(t *testing.T) {
	m := NewMetrics()
	m.RecordStats("credit_card", 1, matcher.Stats{Buffers: 2, Bytes: 100, Iterations: 90, Matches: 2, ValidatorRejects: 1, EarlyExits: 1})
	m.RecordStats("credit_card", 1, matcher.Stats{Buffers: 1, Bytes: 10, Iterations: 10})
	m.RecordStats("credit_card", 3, matcher.Stats{Buffers: 5, GuardRejects: 4})

	families, err := m.Gather()
	require.NoError(t, err)

	one := map[string]string{"pattern": "credit_card", "threshold": "1"}
	assert.Equal(t, 3.0, CounterValue(families, "sdpattern_buffers_total", one))
	assert.Equal(t, 110.0, CounterValue(families, "sdpattern_bytes_total", one))
	assert.Equal(t, 100.0, CounterValue(families, "sdpattern_attempts_total", one))
	assert.Equal(t, 2.0, CounterValue(families, "sdpattern_matches_total", one))
	assert.Equal(t, 1.0, CounterValue(families, "sdpattern_validator_rejects_total", one))
	assert.Equal(t, 1.0, CounterValue(families, "sdpattern_early_exits_total", one))

	three := map[string]string{"pattern": "credit_card", "threshold": "3"}
	assert.Equal(t, 5.0, CounterValue(families, "sdpattern_buffers_total", three))
	assert.Equal(t, 4.0, CounterValue(families, "sdpattern_guard_rejects_total", three))
	assert.Equal(t, 0.0, CounterValue(families, "sdpattern_buffers_total", map[string]string{"pattern": "us_social"}))
}

func TestRecordAlertsAndFiles(t *testing.T) {
	m := NewMetrics()
	m.RecordAlert("sd.us_social.1")
	m.RecordAlert("sd.us_social.1")
	m.RecordFile()
	m.RecordSkipped("binary")

	families, err := m.Gather()
	require.NoError(t, err)

	assert.Equal(t, 2.0, CounterValue(families, "sdpattern_alerts_total", map[string]string{"rule_id": "sd.us_social.1"}))
	assert.Equal(t, 1.0, CounterValue(families, "sdpattern_files_scanned_total", nil))
	assert.Equal(t, 1.0, CounterValue(families, "sdpattern_files_skipped_total", map[string]string{"reason": "binary"}))
	assert.Equal(t, 0.0, CounterValue(families, "sdpattern_files_skipped_total", map[string]string{"reason": "too_large"}))
}

func TestWriteText(t *testing.T) {
	m := NewMetrics()
	m.RecordStats("us_social", 2, matcher.Stats{Buffers: 1, Matches: 2})
	m.RecordFile()

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "# TYPE sdpattern_matches_total counter")
	assert.Contains(t, out, `sdpattern_matches_total{pattern="us_social",threshold="2"} 2`)
	assert.Contains(t, out, "sdpattern_files_scanned_total 1")
}
