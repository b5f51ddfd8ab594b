// Package metrics defines all custom Prometheus metrics for the facebank
// API. It is the single source of truth for metric names, labels, and help
// strings; promauto registers everything with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "facebank"

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerOperationsTotal counts committed and rejected ledger operations.
// Labels:
//   - kind: "deposit", "withdraw", or "transfer"
//   - outcome: "committed" or a short rejection reason
//     ("invalid_amount", "insufficient_funds", "not_found", "self_transfer", "error")
var LedgerOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Total number of ledger operations, by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// AccountsCreatedTotal counts successful registrations.
var AccountsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_created_total",
		Help:      "Total number of accounts created.",
	},
)

// ── Identity metrics ──────────────────────────────────────────────────────────

// RecognitionTotal counts face recognition attempts by result.
// Label:
//   - result: "match", "no_match", "no_face", "models_unavailable", "error"
var RecognitionTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recognition_total",
		Help:      "Total number of face recognition attempts, by result.",
	},
	[]string{"result"},
)

// RecognitionProbability observes the best candidate probability per frame,
// matched or not, so threshold calibration can be checked against traffic.
var RecognitionProbability = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recognition_best_probability",
		Help:      "Best per-frame candidate probability reported by the classifier.",
		Buckets:   prometheus.LinearBuckets(0.05, 0.05, 19), // 0.05 … 0.95
	},
)

// EnrollmentsTotal counts enrollment attempts by result.
// Label:
//   - result: "trained", "insufficient_samples", "error"
var EnrollmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Total number of face enrollment attempts, by result.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// RegisterActiveSessions registers a gauge sampled from the live session
// table on every scrape. Called once at startup.
func RegisterActiveSessions(count func() float64) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Current number of unexpired sessions in the authority table.",
		},
		count,
	)
}

// LoginsTotal counts login attempts by method and outcome.
// Labels:
//   - method: "password", "face", "confirm"
//   - outcome: "ok" or "rejected"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login and confirmation attempts.",
	},
	[]string{"method", "outcome"},
)
