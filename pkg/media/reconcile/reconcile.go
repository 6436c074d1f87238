package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmarchetti/vetrina/internal/logger"
	"github.com/dmarchetti/vetrina/pkg/media"
	"github.com/dmarchetti/vetrina/pkg/media/store"
	"github.com/dmarchetti/vetrina/pkg/metrics"
)

// ErrRunInProgress is returned when a reconciliation run is requested while
// another run is still active. The caller performed no storage or database
// I/O; it can retry once the active run finishes.
var ErrRunInProgress = errors.New("media reconciliation already in progress")

// DefaultGracePeriod is the minimum object age before an unreferenced
// object is eligible for deletion. It covers the window between an upload
// completing and the owning document write landing.
const DefaultGracePeriod = 5 * time.Minute

// ============================================================================
// Types
// ============================================================================

// ReferenceSource provides the catalog side of a reconciliation run:
// collecting every referenced media key and scrubbing references whose
// objects are gone. Implemented by the catalog store.
type ReferenceSource interface {
	// CollectMediaKeys returns the set of media keys referenced anywhere in
	// the catalog, restricted to the given managed prefixes.
	CollectMediaKeys(ctx context.Context, prefixes []string) (map[string]struct{}, error)

	// PullGalleryKeys removes the given keys from product gallery arrays.
	// Returns the number of products whose gallery changed.
	PullGalleryKeys(ctx context.Context, keys []string) (int, error)

	// ClearProductThumbnails nulls product thumbnails matching the given
	// keys. Returns the number of rows changed.
	ClearProductThumbnails(ctx context.Context, keys []string) (int, error)

	// ClearCategoryThumbnails nulls category thumbnails matching the given
	// keys. Returns the number of rows changed.
	ClearCategoryThumbnails(ctx context.Context, keys []string) (int, error)
}

// Result summarizes a completed reconciliation run.
type Result struct {
	// OrphanedFilesRemoved is the number of orphan deletions the storage
	// provider confirmed.
	OrphanedFilesRemoved int `json:"orphanedFilesRemoved"`

	// OrphansAttempted is the number of orphan keys submitted for deletion,
	// including keys in batches that later failed. Always >= the confirmed
	// count.
	OrphansAttempted int `json:"orphansAttempted"`

	// DanglingReferencesFixed is the number of catalog references removed
	// or nulled because their object no longer exists.
	DanglingReferencesFixed int `json:"danglingReferencesFixed"`

	// CleanupErrors counts reference-cleanup groups that failed. The
	// surviving groups' fixes are still counted above.
	CleanupErrors int `json:"cleanupErrors,omitempty"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"-"`
}

// Config configures a reconciliation Engine.
type Config struct {
	// GracePeriod is the minimum object age for orphan eligibility.
	// Zero means DefaultGracePeriod; negative disables the grace period.
	GracePeriod time.Duration

	// Prefixes restricts the run to these key prefixes. Nil means all
	// managed prefixes.
	Prefixes []string

	// Metrics receives run observations. May be nil.
	Metrics metrics.MediaMetrics
}

// Engine reconciles catalog media references against object storage.
type Engine struct {
	refs        ReferenceSource
	objects     store.ObjectStore
	gracePeriod time.Duration
	prefixes    []string
	metrics     metrics.MediaMetrics

	running atomic.Bool
}

// New creates a reconciliation engine over the given catalog reference
// source and object store.
func New(refs ReferenceSource, objects store.ObjectStore, cfg Config) *Engine {
	grace := cfg.GracePeriod
	switch {
	case grace == 0:
		grace = DefaultGracePeriod
	case grace < 0:
		grace = 0
	}

	prefixes := cfg.Prefixes
	if prefixes == nil {
		prefixes = media.ManagedPrefixes()
	}

	return &Engine{
		refs:        refs,
		objects:     objects,
		gracePeriod: grace,
		prefixes:    prefixes,
		metrics:     cfg.Metrics,
	}
}

// ============================================================================
// Run
// ============================================================================

// Run executes one reconciliation pass.
//
// If a run is already active it returns ErrRunInProgress without touching
// storage or the database. A snapshot failure aborts the run with zero
// counts and no mutations. Orphan deletion and reference cleanup are
// best-effort: individual batch or group failures are logged and reflected
// in the Result, but do not fail the run.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		logger.Warn("media reconciliation trigger ignored, run already active")
		if e.metrics != nil {
			e.metrics.RecordReconcileRun(0, "busy")
		}
		return Result{}, ErrRunInProgress
	}
	defer e.running.Store(false)

	start := time.Now()
	logger.Info("media reconciliation started",
		"prefixes", e.prefixes,
		"gracePeriod", e.gracePeriod)

	referenced, stored, err := e.snapshot(ctx)
	if err != nil {
		logger.Error("media reconciliation aborted, snapshot failed", "error", err)
		if e.metrics != nil {
			e.metrics.RecordReconcileRun(time.Since(start), "error")
		}
		return Result{}, err
	}

	orphans, dangling := diff(referenced, stored, start.Add(-e.gracePeriod))

	result := Result{}
	result.OrphanedFilesRemoved, result.OrphansAttempted = e.deleteOrphans(ctx, orphans)
	result.DanglingReferencesFixed, result.CleanupErrors = e.cleanReferences(ctx, dangling)
	result.Duration = time.Since(start)

	logger.Info("media reconciliation finished",
		"orphanedFilesRemoved", result.OrphanedFilesRemoved,
		"orphansAttempted", result.OrphansAttempted,
		"danglingReferencesFixed", result.DanglingReferencesFixed,
		"cleanupErrors", result.CleanupErrors,
		"duration", result.Duration)

	if e.metrics != nil {
		e.metrics.RecordReconcileRun(result.Duration, "ok")
		e.metrics.RecordOrphansDeleted(result.OrphanedFilesRemoved)
		e.metrics.RecordDanglingFixed(result.DanglingReferencesFixed)
	}

	return result, nil
}

// snapshot captures both key sets concurrently. Either failure aborts the
// whole snapshot: acting on a partial view risks deleting live objects.
func (e *Engine) snapshot(ctx context.Context) (referenced map[string]struct{}, stored map[string]store.ObjectInfo, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		keys, err := e.refs.CollectMediaKeys(gctx, e.prefixes)
		if err != nil {
			return fmt.Errorf("failed to collect catalog references: %w", err)
		}
		referenced = keys
		return nil
	})

	listings := make([][]store.ObjectInfo, len(e.prefixes))
	for i, prefix := range e.prefixes {
		g.Go(func() error {
			objects, err := e.objects.ListByPrefix(gctx, prefix)
			if err != nil {
				return fmt.Errorf("failed to list objects under %q: %w", prefix, err)
			}
			listings[i] = objects
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stored = make(map[string]store.ObjectInfo)
	for _, listing := range listings {
		for _, obj := range listing {
			stored[obj.Key] = obj
		}
	}
	return referenced, stored, nil
}

// diff computes the two deltas. Objects modified after cutoff are too young
// to be orphans, but still count as present for the dangling diff.
func diff(referenced map[string]struct{}, stored map[string]store.ObjectInfo, cutoff time.Time) (orphans, dangling []string) {
	for key, obj := range stored {
		if _, ok := referenced[key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			logger.Debug("skipping recent unreferenced object", "key", key, "lastModified", obj.LastModified)
			continue
		}
		orphans = append(orphans, key)
	}

	for key := range referenced {
		if _, ok := stored[key]; !ok {
			dangling = append(dangling, key)
		}
	}
	return orphans, dangling
}

// deleteOrphans deletes orphan keys in batches bounded by the storage
// provider's limit. A failed batch is logged and skipped; remaining batches
// still run.
func (e *Engine) deleteOrphans(ctx context.Context, orphans []string) (confirmed, attempted int) {
	for start := 0; start < len(orphans); start += store.MaxDeleteBatch {
		end := start + store.MaxDeleteBatch
		if end > len(orphans) {
			end = len(orphans)
		}
		batch := orphans[start:end]
		attempted += len(batch)

		deleted, err := e.objects.DeleteKeys(ctx, batch)
		confirmed += deleted
		if err != nil {
			logger.Error("orphan delete batch failed",
				"batchSize", len(batch),
				"confirmed", deleted,
				"error", err)
			continue
		}
		logger.Debug("orphan delete batch done", "batchSize", len(batch), "confirmed", deleted)
	}
	return confirmed, attempted
}

// cleanReferences scrubs dangling keys from the catalog. The three
// reference kinds are independent, so their cleanups run in parallel and a
// failure in one does not stop the others.
func (e *Engine) cleanReferences(ctx context.Context, dangling []string) (fixed, groupErrors int) {
	if len(dangling) == 0 {
		return 0, 0
	}

	byPrefix := make(map[string][]string)
	for _, key := range dangling {
		byPrefix[media.PrefixOf(key)] = append(byPrefix[media.PrefixOf(key)], key)
	}

	type group struct {
		name  string
		keys  []string
		clean func(context.Context, []string) (int, error)
	}
	groups := []group{
		{"productGalleries", byPrefix[media.PrefixProductGallery], e.refs.PullGalleryKeys},
		{"productThumbnails", byPrefix[media.PrefixProductThumbs], e.refs.ClearProductThumbnails},
		{"categoryThumbnails", byPrefix[media.PrefixCategoryThumbs], e.refs.ClearCategoryThumbnails},
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, g := range groups {
		if len(g.keys) == 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()

			n, err := g.clean(ctx, g.keys)
			mu.Lock()
			defer mu.Unlock()
			fixed += n
			if err != nil {
				groupErrors++
				logger.Error("reference cleanup group failed",
					"group", g.name,
					"keys", len(g.keys),
					"error", err)
			}
		}()
	}
	wg.Wait()
	return fixed, groupErrors
}
