// Package metrics holds the Prometheus instruments for the write paths
// and the sync queue. Everything registers on the default registry and
// is served from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReceiptsCreated counts successful receipt saves.
	ReceiptsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receiptbook_receipts_created_total",
		Help: "Receipts created locally.",
	})

	// ReceiptsDeleted counts soft deletes.
	ReceiptsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receiptbook_receipts_deleted_total",
		Help: "Receipts soft-deleted locally.",
	})

	// OutboxEnqueued counts outbox entries by kind, matching the
	// (entity_type, operation) payload union.
	OutboxEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receiptbook_outbox_enqueued_total",
		Help: "Outbox entries written, by entity type and operation.",
	}, []string{"entity_type", "operation"})
)

// RegisterOutboxDepth exposes the current number of undelivered outbox
// entries as a gauge, sampled at scrape time.
func RegisterOutboxDepth(depth func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "receiptbook_outbox_depth",
		Help: "Outbox entries awaiting delivery.",
	}, depth)
}
