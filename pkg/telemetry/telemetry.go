package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	opsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yappin_ops_total",
			Help: "Engine operations, by operation name.",
		},
		[]string{"op"},
	)

	opFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yappin_op_failures_total",
			Help: "Failed engine operations, by operation name and error kind.",
		},
		[]string{"op", "kind"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yappin_notifications_total",
			Help: "Notification records written, by type.",
		},
		[]string{"type"},
	)

	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yappin_store_batch_ops",
			Help:    "Paths per atomic multi-path update.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		},
	)

	counterDrift = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yappin_counter_drift_repairs_total",
			Help: "Denormalized counters repaired by the reconciliation job.",
		},
		[]string{"counter"},
	)
)

func init() {
	prometheus.MustRegister(opsTotal, opFailures, notificationsTotal, batchSize, counterDrift)
}

// TrackOp records one operation attempt; on failure the caller also records
// the error kind via OpFailed.
func TrackOp(op string) {
	opsTotal.WithLabelValues(op).Inc()
}

func OpFailed(op, kind string) {
	opFailures.WithLabelValues(op, kind).Inc()
}

// NotificationWritten counts one committed notification record. Callers
// increment after their batch commits so failed batches are not counted.
func NotificationWritten(typ string) {
	notificationsTotal.WithLabelValues(typ).Inc()
}

// NotificationsWritten counts n committed records of one type (fan-outs).
func NotificationsWritten(typ string, n int) {
	notificationsTotal.WithLabelValues(typ).Add(float64(n))
}

func ObserveBatchSize(n int) {
	batchSize.Observe(float64(n))
}

func DriftRepaired(counter string) {
	counterDrift.WithLabelValues(counter).Inc()
}
