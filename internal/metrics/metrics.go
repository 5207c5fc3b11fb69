// Package metrics defines the Prometheus instruments shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admission control metrics
var (
	// AdmissionChecksTotal tracks admission checks by action class and outcome
	AdmissionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_checks_total",
			Help: "Admission checks by action class and outcome (allowed/denied)",
		},
		[]string{"action", "outcome"},
	)

	// AdmissionTrackedKeys tracks the number of keys with in-window history
	AdmissionTrackedKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admission_tracked_keys",
			Help: "Number of keys currently tracked by the window counter store",
		},
	)

	// AdmissionPrunedKeysTotal tracks keys removed by the periodic sweep
	AdmissionPrunedKeysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_pruned_keys_total",
			Help: "Total stale keys removed by the window store sweep",
		},
	)
)

// Vote ledger metrics
var (
	// VotesTotal tracks applied votes by target type and resulting action
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Applied votes by target type and action (upvoted/downvoted/changed/removed)",
		},
		[]string{"target_type", "action"},
	)

	// VoteRejectionsTotal tracks votes rejected before reaching storage
	VoteRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vote_rejections_total",
			Help: "Votes rejected by precondition (self_vote/not_found/invalid)",
		},
		[]string{"reason"},
	)
)

// Thread assembly metrics
var (
	// ThreadAssemblyDuration tracks comment tree assembly latency in seconds
	ThreadAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thread_assembly_duration_seconds",
			Help:    "Comment tree assembly duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// ThreadOrphansPromoted tracks nodes promoted to root because their parent was absent
	ThreadOrphansPromoted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thread_orphans_promoted_total",
			Help: "Comments promoted to the root list because their parent was not in the result set",
		},
	)
)

// Cache metrics
var (
	// ThreadCacheHits tracks read-side thread cache lookups
	ThreadCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thread_cache_requests_total",
			Help: "Thread cache lookups by result (hit/miss/error)",
		},
		[]string{"result"},
	)
)
