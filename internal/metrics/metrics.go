// Package metrics defines the Prometheus instrumentation for the agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors tracked per process.
type Metrics struct {
	// RunsTotal counts runs by terminal status (completed, failed, timeout...).
	RunsTotal *prometheus.CounterVec

	// RunDuration observes the time from run creation to a terminal status.
	RunDuration prometheus.Histogram

	// TurnsTotal counts chat turns accepted at the HTTP boundary.
	TurnsTotal prometheus.Counter
}

// New registers the collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "empassist",
			Name:      "runs_total",
			Help:      "Runs by terminal status.",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "empassist",
			Name:      "run_duration_seconds",
			Help:      "Time from run creation to terminal status.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TurnsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "empassist",
			Name:      "chat_turns_total",
			Help:      "Chat turns accepted at the HTTP boundary.",
		}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests and
// callers that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
