// Package services: Prometheus instrumentation
//
// Domain-level collectors for the allocators. HTTP-level metrics live in the
// middleware package; the counters here track the correctness-sensitive events
// (claim races, round retries) that dashboards alert on.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// leadsAssigned counts leads successfully claimed, by assignee.
	leadsAssigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_assigned_total",
			Help: "Total number of leads claimed by bulk assignment.",
		},
		[]string{"assignee_id"},
	)

	// assignClaimConflicts counts bulk-claim transactions that lost contested
	// rows to a concurrent allocator and were retried.
	assignClaimConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assignment_claim_conflicts_total",
			Help: "Total number of bulk-assignment claim races detected and retried.",
		},
	)

	// roundRetries counts round reservations that hit the unique constraint
	// and were recomputed.
	roundRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_round_retries_total",
			Help: "Total number of contact-round insert races retried internally.",
		},
	)

	// roundConflicts counts round reservations that exhausted the retry
	// budget and surfaced a conflict to the caller.
	roundConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_round_conflicts_total",
			Help: "Total number of contact-round allocations that failed after retries.",
		},
	)
)

func init() {
	prometheus.MustRegister(leadsAssigned, assignClaimConflicts, roundRetries, roundConflicts)
}
