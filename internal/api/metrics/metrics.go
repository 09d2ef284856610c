// Package metrics defines and registers all custom Prometheus metrics for the
// blog API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "invalid_request" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AccessDecisionsTotal counts decisions taken by the auth middleware.
// Label:
//   - outcome: "anonymous", "authenticated", "unauthenticated", "forbidden" or "error"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of access guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Post metrics ──────────────────────────────────────────────────────────────

// PostMutationsTotal counts successful post mutations.
// Label:
//   - op: "create", "update", "delete" or "upload"
var PostMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_mutations_total",
		Help:      "Total number of successful post mutations, by operation.",
	},
	[]string{"op"},
)

// IdempotentReplaysTotal counts create requests answered from a previous
// Idempotency-Key claim.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of post creations replayed from an idempotency key.",
	},
)

// ── Cleanup queue metrics ─────────────────────────────────────────────────────

// CleanupJobsTotal counts image cleanup jobs.
// Label:
//   - result: "ok", "error" or "dropped"
var CleanupJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_jobs_total",
		Help:      "Total number of image cleanup jobs, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks the current number of jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cleanup_queue_depth",
		Help:      "Current number of image cleanup jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
