// Package telemetry exposes merged scan counters as Prometheus metrics.
package telemetry

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/sagardeyrakesh/sdpattern/pkg/matcher"
)

// Metrics holds the Prometheus collectors for one scan run.
type Metrics struct {
	buffers          *prometheus.CounterVec
	bytes            *prometheus.CounterVec
	iterations       *prometheus.CounterVec
	matches          *prometheus.CounterVec
	validatorRejects *prometheus.CounterVec
	guardRejects     *prometheus.CounterVec
	earlyExits       *prometheus.CounterVec

	alerts       *prometheus.CounterVec
	filesScanned prometheus.Counter
	filesSkipped *prometheus.CounterVec

	registry *prometheus.Registry
}

var optionLabels = []string{"pattern", "threshold"}

func optionCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sdpattern",
			Name:      name,
			Help:      help,
		},
		optionLabels,
	)
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		buffers:          optionCounter("buffers_total", "Buffers searched per pattern option"),
		bytes:            optionCounter("bytes_total", "Bytes offered to the scanner per pattern option"),
		iterations:       optionCounter("attempts_total", "Match attempts per pattern option"),
		matches:          optionCounter("matches_total", "Validated matches counted per pattern option"),
		validatorRejects: optionCounter("validator_rejects_total", "Candidates rejected by their validator"),
		guardRejects:     optionCounter("guard_rejects_total", "Candidates rejected by a boundary guard"),
		earlyExits:       optionCounter("early_exits_total", "Searches stopped early by the threshold"),

		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sdpattern",
				Name:      "alerts_total",
				Help:      "Alerts raised per rule",
			},
			[]string{"rule_id"},
		),
		filesScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sdpattern",
				Name:      "files_scanned_total",
				Help:      "Files read and evaluated",
			},
		),
		filesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sdpattern",
				Name:      "files_skipped_total",
				Help:      "Files skipped before evaluation by reason",
			},
			[]string{"reason"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.buffers,
		m.bytes,
		m.iterations,
		m.matches,
		m.validatorRejects,
		m.guardRejects,
		m.earlyExits,
		m.alerts,
		m.filesScanned,
		m.filesSkipped,
	)
	return m
}

// RecordStats adds merged scanner counters for one pattern option.
func (m *Metrics) RecordStats(pattern string, threshold int, s matcher.Stats) {
	labels := prometheus.Labels{"pattern": pattern, "threshold": strconv.Itoa(threshold)}
	m.buffers.With(labels).Add(float64(s.Buffers))
	m.bytes.With(labels).Add(float64(s.Bytes))
	m.iterations.With(labels).Add(float64(s.Iterations))
	m.matches.With(labels).Add(float64(s.Matches))
	m.validatorRejects.With(labels).Add(float64(s.ValidatorRejects))
	m.guardRejects.With(labels).Add(float64(s.GuardRejects))
	m.earlyExits.With(labels).Add(float64(s.EarlyExits))
}

// RecordAlert counts one alert for ruleID.
func (m *Metrics) RecordAlert(ruleID string) {
	m.alerts.WithLabelValues(ruleID).Inc()
}

// RecordFile counts one evaluated file.
func (m *Metrics) RecordFile() {
	m.filesScanned.Inc()
}

// RecordSkipped counts one skipped file.
func (m *Metrics) RecordSkipped(reason string) {
	m.filesSkipped.WithLabelValues(reason).Inc()
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Gather collects the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// WriteText writes every metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// CounterValue returns the value of the counter called name whose labels
// include every pair in labels, or 0 when absent.
func CounterValue(families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	found := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := want[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(want)
}
