// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces in pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmarchetti/vetrina/pkg/metrics"
)

// mediaMetrics is the Prometheus implementation of metrics.MediaMetrics.
type mediaMetrics struct {
	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	orphansDeleted    prometheus.Counter
	danglingFixed     prometheus.Counter
	tempFilesDeleted  prometheus.Counter
	tempBytesFreed    prometheus.Counter
}

// NewMediaMetrics creates a new Prometheus-backed MediaMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewMediaMetrics() metrics.MediaMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &mediaMetrics{
		reconcileRuns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetrina_media_reconcile_runs_total",
				Help: "Total number of media reconciliation runs by status",
			},
			[]string{"status"}, // "ok", "error", "busy"
		),
		reconcileDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "vetrina_media_reconcile_duration_seconds",
				Help: "Duration of media reconciliation runs in seconds",
				Buckets: []float64{
					0.1, // small catalogs
					0.5,
					1,
					5,
					15,
					60,  // large listings
					300, // pathological runs
				},
			},
		),
		orphansDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_media_orphans_deleted_total",
				Help: "Total number of orphaned storage objects deleted",
			},
		),
		danglingFixed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_media_dangling_references_fixed_total",
				Help: "Total number of dangling catalog references removed or nulled",
			},
		),
		tempFilesDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_media_temp_files_deleted_total",
				Help: "Total number of expired staging files deleted",
			},
		),
		tempBytesFreed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "vetrina_media_temp_bytes_freed_total",
				Help: "Total bytes reclaimed from the staging directory",
			},
		),
	}
}

func (m *mediaMetrics) RecordReconcileRun(duration time.Duration, status string) {
	m.reconcileRuns.WithLabelValues(status).Inc()
	if status != "busy" {
		m.reconcileDuration.Observe(duration.Seconds())
	}
}

func (m *mediaMetrics) RecordOrphansDeleted(count int) {
	m.orphansDeleted.Add(float64(count))
}

func (m *mediaMetrics) RecordDanglingFixed(count int) {
	m.danglingFixed.Add(float64(count))
}

func (m *mediaMetrics) RecordTempCleanup(filesDeleted int, bytesFreed int64) {
	m.tempFilesDeleted.Add(float64(filesDeleted))
	m.tempBytesFreed.Add(float64(bytesFreed))
}
