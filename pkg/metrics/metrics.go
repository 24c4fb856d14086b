// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VoteTogglesTotal tracks vote toggles by reaction type and direction
	VoteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "voting",
			Name:      "toggles_total",
			Help:      "Total number of vote toggles by reaction type and direction",
		},
		[]string{"tenant_id", "reaction_type", "direction"},
	)

	// VoteToggleDuration tracks toggle transaction duration in seconds
	VoteToggleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "voting",
			Name:      "toggle_duration_seconds",
			Help:      "Duration of vote toggle transactions in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"tenant_id"},
	)

	// MergesTotal tracks merge operations by outcome
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merging",
			Name:      "merges_total",
			Help:      "Total number of merge operations by outcome",
		},
		[]string{"tenant_id", "outcome"},
	)

	// MergeDuration tracks merge transaction duration in seconds
	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "merging",
			Name:      "merge_duration_seconds",
			Help:      "Duration of merge transactions in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"tenant_id"},
	)

	// MergedVotesTotal tracks vote rows carried over or discarded by merges
	MergedVotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merging",
			Name:      "votes_total",
			Help:      "Total number of votes migrated or discarded during merges",
		},
		[]string{"tenant_id", "disposition"},
	)

	// SearchesTotal tracks similarity searches
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "similarity",
			Name:      "searches_total",
			Help:      "Total number of similarity searches by kind",
		},
		[]string{"tenant_id", "kind"},
	)

	// StatusTransitionsTotal tracks workflow transitions
	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total number of status transitions",
		},
		[]string{"tenant_id", "from", "to"},
	)

	// RateLimitHits tracks vote toggle rate limit hits
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "ratelimit",
			Name:      "hits_total",
			Help:      "Total number of rate limit hits",
		},
		[]string{"tenant_id"},
	)

	// KafkaMessagesPublished tracks event messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

// RecordToggle records a vote toggle metric
func RecordToggle(tenantID, reactionType, direction string, durationSeconds float64) {
	VoteTogglesTotal.WithLabelValues(tenantID, reactionType, direction).Inc()
	VoteToggleDuration.WithLabelValues(tenantID).Observe(durationSeconds)
}

// RecordMerge records a merge operation metric
func RecordMerge(tenantID, outcome string, durationSeconds float64) {
	MergesTotal.WithLabelValues(tenantID, outcome).Inc()
	MergeDuration.WithLabelValues(tenantID).Observe(durationSeconds)
}

// RecordMergedVotes records vote dispositions during a merge
func RecordMergedVotes(tenantID string, migrated, discarded int) {
	MergedVotesTotal.WithLabelValues(tenantID, "migrated").Add(float64(migrated))
	MergedVotesTotal.WithLabelValues(tenantID, "discarded").Add(float64(discarded))
}

// RecordSearch records a similarity search
func RecordSearch(tenantID, kind string) {
	SearchesTotal.WithLabelValues(tenantID, kind).Inc()
}

// RecordTransition records a status transition
func RecordTransition(tenantID, from, to string) {
	StatusTransitionsTotal.WithLabelValues(tenantID, from, to).Inc()
}
