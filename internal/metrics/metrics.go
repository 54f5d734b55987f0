// Package metrics provides Prometheus metrics for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PreviewsTotal tracks preview runs by kind, format and outcome.
	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goalio",
			Subsystem: "import",
			Name:      "previews_total",
			Help:      "Total number of import previews by outcome",
		},
		[]string{"kind", "format", "outcome"},
	)

	// RecordsClassified tracks preview classifications by status.
	RecordsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goalio",
			Subsystem: "import",
			Name:      "records_classified_total",
			Help:      "Total number of previewed records by import status",
		},
		[]string{"kind", "status"},
	)

	// RecordsCommitted tracks confirm outcomes per record.
	RecordsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goalio",
			Subsystem: "import",
			Name:      "records_total",
			Help:      "Total number of confirmed records by result",
		},
		[]string{"kind", "result"},
	)

	// ConfirmDuration tracks how long confirm calls take.
	ConfirmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "goalio",
			Subsystem: "import",
			Name:      "confirm_duration_seconds",
			Help:      "Duration of import confirm calls in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	// ExportsTotal tracks export runs by kind and format.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goalio",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Total number of exports by kind and format",
		},
		[]string{"kind", "format"},
	)

	// ConfirmsInFlight tracks confirm calls holding a limiter slot.
	ConfirmsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "goalio",
			Subsystem: "import",
			Name:      "confirms_in_flight",
			Help:      "Number of confirm calls currently writing",
		},
	)

	// PreviewSessions tracks stored preview sessions awaiting confirmation.
	PreviewSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "goalio",
			Subsystem: "import",
			Name:      "preview_sessions",
			Help:      "Number of preview sessions awaiting confirmation",
		},
	)
)
