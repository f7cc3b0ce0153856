package sweep

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadline_sweep_rows_processed_total",
			Help: "Rows transitioned by the deadline sweep",
		},
		[]string{"pass"},
	)

	rowErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadline_sweep_row_errors_total",
			Help: "Per-row failures during the deadline sweep",
		},
		[]string{"pass"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deadline_sweep_duration_seconds",
			Help:    "Duration of a full deadline sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
)
