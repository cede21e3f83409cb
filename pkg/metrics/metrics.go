package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreLatency    *prometheus.HistogramVec

	// Activity metrics
	ViewsRecorded      prometheus.Counter
	ActivitiesRecorded *prometheus.CounterVec
	RecordFailures     prometheus.Counter

	// Recommendation metrics
	RecommendationsServed *prometheus.CounterVec
	RecommendationLatency prometheus.Histogram
	PopularityRefreshes   prometheus.Counter

	// Analytics metrics
	RollupRuns   *prometheus.CounterVec
	RollupEvents prometheus.Histogram
	EventsPruned prometheus.Counter

	// Mailbox metrics
	NotificationsCreated *prometheus.CounterVec
	NotificationsRead    prometheus.Counter

	// Scheduler metrics
	SchedulerPublishes *prometheus.CounterVec
	SchedulerCancels   *prometheus.CounterVec
}

// New creates and registers all application metrics under a namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		StoreOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		}, []string{"operation", "status"}),
		StoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),

		ViewsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_recorded_total",
			Help:      "Total number of course views recorded",
		}),
		ActivitiesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_recorded_total",
			Help:      "Total number of activity events recorded",
		}, []string{"action"}),
		RecordFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_failures_total",
			Help:      "Total number of activity writes degraded by store errors",
		}),

		RecommendationsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_served_total",
			Help:      "Total number of recommendation responses by source",
		}, []string{"source"}),
		RecommendationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time spent computing recommendations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		PopularityRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "popularity_refreshes_total",
			Help:      "Total number of popularity ranking rebuilds",
		}),

		RollupRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollup_runs_total",
			Help:      "Total number of daily aggregation runs by status",
		}, []string{"status"}),
		RollupEvents: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rollup_batch_events",
			Help:      "Number of raw events folded per aggregation run",
			Buckets:   []float64{0, 10, 100, 1000, 10000, 100000},
		}),
		EventsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_pruned_total",
			Help:      "Total number of raw events removed by retention",
		}),

		NotificationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications created by type",
		}, []string{"type"}),
		NotificationsRead: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_read_total",
			Help:      "Total number of notifications marked read",
		}),

		SchedulerPublishes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_publishes_total",
			Help:      "Total number of scheduler publish requests by status",
		}, []string{"status"}),
		SchedulerCancels: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_cancels_total",
			Help:      "Total number of scheduler cancel requests by status",
		}, []string{"status"}),
	}
}
