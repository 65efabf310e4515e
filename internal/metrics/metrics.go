package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instruments shared across the service: resolver timing
// and output size, dropped snapshot rows, rejected view transitions, and
// database query durations.
type Metrics struct {
	ResolveDuration   *prometheus.HistogramVec
	TasksVisible      *prometheus.HistogramVec
	TasksRejected     prometheus.Counter
	DeniedTransitions *prometheus.CounterVec
	DBQueryDuration   *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered on the provided
// Registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		ResolveDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argus_resolve_duration_seconds",
			Help:    "Duration of a single visibility resolution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"level"}),
		TasksVisible: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argus_tasks_visible",
			Help:    "Number of tasks returned by a resolution.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"level"}),
		TasksRejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "argus_tasks_rejected_total",
			Help: "Total malformed task records dropped from candidate sets.",
		}),
		DeniedTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "argus_view_transitions_denied_total",
			Help: "Total rejected view-state transitions.",
		}, []string{"reason"}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argus_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'list_tasks', 'save_task', ...
	}

	return metrics
}
