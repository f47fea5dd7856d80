package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Core operation metrics. Registered once at import via promauto.
var (
	TransfersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_transfers_created_total",
		Help: "Total number of transfers committed",
	})

	TransfersReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_transfers_replayed_total",
		Help: "Total number of idempotent transfer replays served without side effects",
	})

	TransferConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_transfer_version_conflicts_total",
		Help: "Total number of optimistic version conflicts hit while applying transfers",
	})

	TransferRetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_transfer_retries_exhausted_total",
		Help: "Total number of transfers that failed after exhausting conflict retries",
	})

	TransferErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankcore_transfer_errors_total",
			Help: "Total number of rejected transfers by error type",
		},
		[]string{"error_type"},
	)

	Deposits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_deposits_total",
		Help: "Total number of committed deposits",
	})

	Withdrawals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_withdrawals_total",
		Help: "Total number of committed withdrawals",
	})

	AccountsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_accounts_created_total",
		Help: "Total number of accounts opened",
	})

	AuditEmitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankcore_audit_emit_failures_total",
		Help: "Total number of audit facts that could not be persisted",
	})
)
