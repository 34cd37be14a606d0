// Package telemetry implements the metrics and trace emitters: push-based
// Prometheus metrics that never block the hot path, and a JSON trace-event
// buffer behind a kill-switch, grounded on metrics_push.py and
// trace_buffer.py.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/codeready-toolchain/aimemory/pkg/config"
)

// knownValue coerces an unexpected label value to "unknown" once, logging
// the substitution, so a label's value set stays closed and cardinality
// never grows unbounded from a bad input.
func knownValue(allowed map[string]bool, value string) string {
	if allowed[value] {
		return value
	}
	slog.Warn("telemetry: unexpected label value coerced to unknown", "value", value)
	return "unknown"
}

var knownOutcomes = map[string]bool{"stored": true, "duplicate": true, "queued": true, "failed": true}
var knownFailureStages = map[string]bool{"embedding": true, "vector_store": true, "classifier": true, "retry_queue": true}

// Metrics holds every named metric family the daemon emits, registered
// under the aimemory_ namespace.
type Metrics struct {
	cfg config.MetricsConfig

	registry *prometheus.Registry

	HookDuration           *prometheus.HistogramVec
	RetrievalDuration      prometheus.Histogram
	EmbeddingDuration      prometheus.Histogram
	ClassificationDuration prometheus.Histogram
	MemoryRetrievals       prometheus.Counter
	QueueSize              prometheus.Gauge
	DedupOutcomes          *prometheus.CounterVec
	FailureEvents          *prometheus.CounterVec
}

// New builds and registers every metric.
func New(cfg config.MetricsConfig) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		cfg:      cfg,
		registry: reg,
		HookDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aimemory", Name: "hook_duration_seconds", Help: "Hook execution duration",
		}, []string{"hook"}),
		RetrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aimemory", Name: "retrieval_duration_seconds", Help: "Search retrieval duration",
		}),
		EmbeddingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aimemory", Name: "embedding_duration_seconds", Help: "Embedding call duration",
		}),
		ClassificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aimemory", Name: "classification_duration_seconds", Help: "Classification duration",
		}),
		MemoryRetrievals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aimemory", Name: "memory_retrievals_total", Help: "Total search retrievals",
		}),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aimemory", Name: "retry_queue_size", Help: "Current retry queue depth",
		}),
		DedupOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aimemory", Name: "dedup_outcomes_total", Help: "Storage pipeline outcomes",
		}, []string{"outcome"}),
		FailureEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aimemory", Name: "failure_events_total", Help: "Failures by stage",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.HookDuration, m.RetrievalDuration, m.EmbeddingDuration,
		m.ClassificationDuration, m.MemoryRetrievals, m.QueueSize, m.DedupOutcomes, m.FailureEvents)
	return m
}

// RecordDedupOutcome increments the outcome counter, coercing unknown
// outcomes to "unknown" rather than creating unbounded label cardinality.
func (m *Metrics) RecordDedupOutcome(outcome string) {
	m.DedupOutcomes.WithLabelValues(knownValue(knownOutcomes, outcome)).Inc()
}

// RecordFailure increments the failure counter for stage.
func (m *Metrics) RecordFailure(stage string) {
	m.FailureEvents.WithLabelValues(knownValue(knownFailureStages, stage)).Inc()
}

// Push fires a detached, timeout-bounded push of the current registry
// state to the configured pushgateway. It runs in its own goroutine and
// never blocks the caller — the Go analogue of the original's
// detached-subprocess-per-push design, since constructing a registry
// snapshot here is cheap and a goroutine leak on timeout is bounded by ctx.
func (m *Metrics) Push(ctx context.Context) {
	if !m.cfg.Enabled || m.cfg.PushURL == "" {
		return
	}
	go func() {
		pushCtx, cancel := context.WithTimeout(ctx, m.cfg.PushTimeout)
		defer cancel()
		err := push.New(m.cfg.PushURL, m.cfg.JobName).
			Gatherer(m.registry).
			PushContext(pushCtx)
		if err != nil {
			slog.Warn("telemetry: metrics push failed", "error", err)
		}
	}()
}

// Registry exposes the underlying registry for the ops surface's /metrics
// passthrough, if one is ever wired.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
