// Package metrics holds the Prometheus collectors for engagement toggles,
// cascades and blob cleanup. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vidtube"

// Metrics groups the engine's collectors.
type Metrics struct {
	Toggles            *prometheus.CounterVec
	CascadesCompleted  *prometheus.CounterVec
	CascadeFailures    *prometheus.CounterVec
	CascadeDuration    *prometheus.HistogramVec
	BlobDeleteFailures *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engagement",
				Name:      "toggles_total",
				Help:      "Engagement toggles by edge kind and resulting state",
			},
			[]string{"kind", "state"},
		),
		CascadesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cascade",
				Name:      "completed_total",
				Help:      "Cascading deletions that ran every step",
			},
			[]string{"op"},
		),
		CascadeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cascade",
				Name:      "failures_total",
				Help:      "Cascading deletions aborted part way, by failed step",
			},
			[]string{"op", "step"},
		),
		CascadeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cascade",
				Name:      "duration_seconds",
				Help:      "Wall time of cascading deletions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		BlobDeleteFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "blobs",
				Name:      "delete_failures_total",
				Help:      "Blob deletions that failed and left an orphaned object",
			},
			[]string{"source"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Toggles, m.CascadesCompleted, m.CascadeFailures, m.CascadeDuration, m.BlobDeleteFailures)
	}
	return m
}

// ToggleRecorded counts a toggle that ended in state for an edge kind.
func (m *Metrics) ToggleRecorded(kind, state string) {
	if m == nil {
		return
	}
	m.Toggles.WithLabelValues(kind, state).Inc()
}

// CascadeCompleted records a cascade that ran to the end.
func (m *Metrics) CascadeCompleted(op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CascadesCompleted.WithLabelValues(op).Inc()
	m.CascadeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// CascadeFailed records a cascade aborted at step.
func (m *Metrics) CascadeFailed(op, step string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CascadeFailures.WithLabelValues(op, step).Inc()
	m.CascadeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// BlobDeleteFailed records a blob that could not be removed.
func (m *Metrics) BlobDeleteFailed(source string) {
	if m == nil {
		return
	}
	m.BlobDeleteFailures.WithLabelValues(source).Inc()
}
