package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the inventory engine. Clamped decrements and reconciliation
// corrections are the drift signals worth alerting on.
var (
	SalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kassa_sales_total",
		Help: "Finalized sales by channel",
	}, []string{"channel"})

	SalesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kassa_sales_rejected_total",
		Help: "Sales rejected by quantity validation",
	}, []string{"reason"})

	ClampedDecrementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_clamped_decrements_total",
		Help: "Counter updates that clamped at zero instead of going negative",
	})

	ReconciliationRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_reconciliation_runs_total",
		Help: "Reconciliation invocations",
	})

	ReconciliationCorrectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_reconciliation_corrections_total",
		Help: "Reconciliation runs that repaired a drifted projection",
	})

	WebhooksIgnoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kassa_webhooks_ignored_total",
		Help: "Webhook deliveries acknowledged but not processed",
	}, []string{"type"})

	DuplicateSalesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kassa_duplicate_sales_total",
		Help: "Ledger inserts skipped by the session idempotency key",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kassa_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
