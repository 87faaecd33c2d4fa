// Package metrics declares the Prometheus collectors shared by the treasury
// services. Collectors register on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_signer_sync_events_total",
			Help: "Membership events processed by the signer sync engine, by kind and resulting action",
		},
		[]string{"kind", "action"},
	)

	SyncFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_signer_sync_failures_total",
			Help: "Membership events aborted by the signer sync engine, by stage",
		},
		[]string{"stage"},
	)

	ProposalsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_proposals_created_total",
			Help: "Transaction proposals persisted, by creator kind",
		},
		[]string{"source"},
	)

	NonceConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treasury_nonce_conflicts_total",
			Help: "Nonce inserts rejected by the uniqueness constraint",
		},
	)

	AccessibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_accessibility_checks_total",
			Help: "Accessibility checks by result class",
		},
		[]string{"result"},
	)

	ProviderTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treasury_provider_request_time",
			Help:    "Chain-state provider request duration distribution in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method"},
	)
)

// Source labels for ProposalsCreated.
const (
	SourceSystem = "system"
	SourceManual = "manual"
)
