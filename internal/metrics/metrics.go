package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudops_status_classifications_total",
			Help: "Total number of controller status classifications",
		},
		[]string{"kind", "state"},
	)

	DeleteConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudops_delete_conflicts_total",
			Help: "Total number of deletes rejected because of dependents",
		},
		[]string{"kind"},
	)

	Deletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudops_deletions_total",
			Help: "Total number of deletion state changes",
		},
		[]string{"kind", "state"}, // state: soft_deleted/hard_deleted/live
	)

	ReleaseRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudops_release_runs_total",
			Help: "Total number of release run status changes",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudops_release_run_duration_seconds",
			Help:    "Release run execution time in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17min
		},
	)
)
