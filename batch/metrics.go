package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments batch runs. All metrics live under the hhwbrick
// namespace.
type Metrics struct {
	BuildingsProcessed *prometheus.CounterVec
	UnitDuration       prometheus.Histogram
	BatchesStarted     prometheus.Counter
}

// NewMetrics registers the batch metrics on a registerer. A nil
// registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		BuildingsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hhwbrick",
			Subsystem: "batch",
			Name:      "buildings_processed_total",
			Help:      "Buildings processed, by outcome.",
		}, []string{"status"}),
		UnitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hhwbrick",
			Subsystem: "batch",
			Name:      "unit_duration_seconds",
			Help:      "Wall time to compile and validate one building.",
			Buckets:   prometheus.DefBuckets,
		}),
		BatchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hhwbrick",
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Batch runs started.",
		}),
	}
}
