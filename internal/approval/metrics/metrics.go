package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the approval workflow module.
type Metrics struct {
	// Decisions by kind and outcome ("approved", "rejected")
	Decisions *prometheus.CounterVec

	// Failed mutations by kind
	MutationFailures *prometheus.CounterVec

	// Directory fetch latency by kind
	FetchLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all approval module metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tradedesk_approval_decisions_total",
			Help: "Total approval workflow decisions by kind and outcome",
		}, []string{"kind", "outcome"}),

		MutationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tradedesk_approval_mutation_failures_total",
			Help: "Total failed approve/reject attempts by kind",
		}, []string{"kind"}),

		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradedesk_approval_fetch_duration_seconds",
			Help:    "Duration of full directory fetches by kind",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
	}
}

// IncrementDecision records a completed approve or reject.
func (m *Metrics) IncrementDecision(kind, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(kind, outcome).Inc()
	}
}

// IncrementMutationFailure records a failed approve or reject.
func (m *Metrics) IncrementMutationFailure(kind string) {
	if m != nil {
		m.MutationFailures.WithLabelValues(kind).Inc()
	}
}

// ObserveFetchLatency records the duration of a full directory fetch.
func (m *Metrics) ObserveFetchLatency(kind string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}
