package rebalancer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"frizo/collateral_engine/internal/version"
)

// Decision outcomes recorded per account and cycle.
const (
	OutcomeAction        = "action"
	OutcomeNoAction      = "no_action"
	OutcomeUnknownHealth = "unknown_health"
	OutcomeSinkError     = "sink_error"
)

// Metrics contains the Prometheus metrics of the rebalancer.
type Metrics struct {
	Decisions     *prometheus.CounterVec
	Transfers     *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	CycleFailures prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: version.Name,
				Name:      "decisions_total",
				Help:      "Accounts evaluated, by outcome",
			},
			[]string{"outcome"},
		),
		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: version.Name,
				Name:      "transfers_total",
				Help:      "Transfers handed to the sink, by direction and venue kind",
			},
			[]string{"direction", "kind"},
		),
		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: version.Name,
				Name:      "cycle_seconds",
				Help:      "Time taken by one rebalance cycle",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CycleFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: version.Name,
				Name:      "cycle_failures_total",
				Help:      "Cycles aborted because snapshots could not be loaded",
			},
		),
	}
}
