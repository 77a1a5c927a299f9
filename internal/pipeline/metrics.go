package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// rowsProcessed tracks emitted results by final status.
	rowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_rows_processed_total",
		Help: "Total number of rows priced by final status",
	}, []string{"status"})

	// rowDuration tracks per-row pipeline latency.
	rowDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_row_duration_seconds",
		Help:    "Time taken to price one row",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// stateTransitions tracks how often each state runs.
	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_state_transitions_total",
		Help: "Total number of state machine transitions by state",
	}, []string{"state"})

	// providerFailures tracks exhausted provider calls.
	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_provider_failures_total",
		Help: "Total number of provider calls that exhausted retries",
	}, []string{"provider"})

	// offersConsidered tracks the candidate pool size per row.
	offersConsidered = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_offers_considered_count",
		Help:    "Number of candidate offers examined per row",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	// panicsRecovered tracks worker-boundary panic recoveries.
	panicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_panics_recovered_total",
		Help: "Total number of per-row panics converted to estimated results",
	})
)
