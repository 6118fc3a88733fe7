// Package metrics records tool and ingest statistics in a prometheus
// registry, which the CLI writes out in the textfile exposition format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bawstun"

type Metrics struct {
	registry     *prometheus.Registry
	toolDuration *prometheus.HistogramVec
	toolFailures *prometheus.CounterVec
	ingests      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Time taken by external characterization tools.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"tool"}),
		toolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_failures_total",
			Help:      "Number of failed external tool invocations.",
		}, []string{"tool", "reason"}),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingests_total",
			Help:      "Number of files ingested in to storage.",
		}, []string{"source"}),
	}

	m.registry.MustRegister(m.toolDuration, m.toolFailures, m.ingests)
	return m
}

func (m *Metrics) ObserveTool(tool string, took time.Duration) {
	m.toolDuration.WithLabelValues(tool).Observe(took.Seconds())
}

func (m *Metrics) ToolFailed(tool string, reason string) {
	m.toolFailures.WithLabelValues(tool, reason).Inc()
}

func (m *Metrics) Ingested(source string) {
	m.ingests.WithLabelValues(source).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every metric to the path provided, in the format
// read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	return nil
}
