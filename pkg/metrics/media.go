package metrics

import "time"

// MediaMetrics provides observability for media reconciliation and temp
// file cleanup runs.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
//
// Example usage:
//
//	metrics.InitRegistry()
//	m := prometheus.NewMediaMetrics()
//	engine := reconcile.New(refs, objects, reconcile.Config{Metrics: m})
type MediaMetrics interface {
	// RecordReconcileRun records a completed reconciliation run.
	// Status is "ok", "error", or "busy".
	RecordReconcileRun(duration time.Duration, status string)

	// RecordOrphansDeleted records confirmed orphan object deletions.
	RecordOrphansDeleted(count int)

	// RecordDanglingFixed records dangling references removed or nulled.
	RecordDanglingFixed(count int)

	// RecordTempCleanup records a completed temp directory sweep.
	RecordTempCleanup(filesDeleted int, bytesFreed int64)
}
