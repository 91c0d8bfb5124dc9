package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. They are observability
// only; no control flow reads them.
type Metrics struct {
	Retries        prometheus.Counter
	BatchesFlushed prometheus.Counter
	RecordsSynced  prometheus.Counter
	SyncErrors     prometheus.Counter
	OfflineQueued  prometheus.Counter
	MergesApplied  prometheus.Counter
	OutboxSize     prometheus.Gauge
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_retries_total",
			Help: "Number of retried network attempts.",
		}),
		BatchesFlushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_batches_flushed_total",
			Help: "Number of batches handed to the sync executor.",
		}),
		RecordsSynced: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_records_synced_total",
			Help: "Number of records acknowledged by the remote store.",
		}),
		SyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_sync_errors_total",
			Help: "Number of saves that exhausted their retries.",
		}),
		OfflineQueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_offline_queued_total",
			Help: "Number of records routed to the offline outbox.",
		}),
		MergesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_merges_applied_total",
			Help: "Number of remote records that replaced local state during reconciliation.",
		}),
		OutboxSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_outbox_size",
			Help: "Current number of entries in the offline outbox.",
		}),
	}
}
