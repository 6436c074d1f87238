// Package janitor reclaims expired files from the local media staging
// directory.
//
// Uploads are spooled to a staging directory before being pushed to object
// storage; a crash between spool and push leaves the file behind. The
// janitor sweeps the directory and deletes regular files older than the
// retention period. Subdirectories are left alone.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dmarchetti/vetrina/internal/bytesize"
	"github.com/dmarchetti/vetrina/internal/logger"
	"github.com/dmarchetti/vetrina/pkg/metrics"
)

// ErrSweepInProgress is returned when a sweep is requested while another
// sweep is still active. The caller performed no filesystem I/O.
var ErrSweepInProgress = errors.New("temp file cleanup already in progress")

// DefaultRetention is how long a staging file may exist before it is
// considered abandoned.
const DefaultRetention = time.Hour

// Result summarizes a completed sweep.
type Result struct {
	// FilesDeleted is the number of files removed.
	FilesDeleted int `json:"filesDeleted"`

	// SizeFreed is the total size in bytes of the removed files.
	SizeFreed int64 `json:"sizeFreed"`

	// Errors counts files that could not be inspected or removed. The
	// sweep continues past them.
	Errors int `json:"errors,omitempty"`
}

// Config configures a Janitor.
type Config struct {
	// Dir is the staging directory to sweep.
	Dir string

	// Retention is the minimum file age before deletion.
	// Zero means DefaultRetention.
	Retention time.Duration

	// Metrics receives sweep observations. May be nil.
	Metrics metrics.MediaMetrics
}

// Janitor sweeps a staging directory for abandoned upload files.
type Janitor struct {
	dir       string
	retention time.Duration
	metrics   metrics.MediaMetrics

	running atomic.Bool
}

// New creates a janitor for the given staging directory.
func New(cfg Config) *Janitor {
	retention := cfg.Retention
	if retention == 0 {
		retention = DefaultRetention
	}
	return &Janitor{
		dir:       cfg.Dir,
		retention: retention,
		metrics:   cfg.Metrics,
	}
}

// Sweep deletes every regular file in the staging directory older than the
// retention period.
//
// A trigger arriving while a sweep is active gets ErrSweepInProgress. A
// missing staging directory is not an error: there is nothing to clean.
// Failures on individual files are logged and counted, and the sweep moves
// on to the next entry.
func (j *Janitor) Sweep(ctx context.Context) (Result, error) {
	if !j.running.CompareAndSwap(false, true) {
		logger.Warn("temp cleanup trigger ignored, sweep already active", "dir", j.dir)
		return Result{}, ErrSweepInProgress
	}
	defer j.running.Store(false)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("staging directory does not exist, nothing to clean", "dir", j.dir)
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("failed to read staging directory %q: %w", j.dir, err)
	}

	cutoff := time.Now().Add(-j.retention)
	result := Result{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat staging file", "path", path, "error", err)
			result.Errors++
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove staging file", "path", path, "error", err)
			result.Errors++
			continue
		}

		result.FilesDeleted++
		result.SizeFreed += info.Size()
	}

	logger.Info("temp cleanup finished",
		"dir", j.dir,
		"filesDeleted", result.FilesDeleted,
		"sizeFreed", bytesize.Format(result.SizeFreed),
		"errors", result.Errors)

	if j.metrics != nil {
		j.metrics.RecordTempCleanup(result.FilesDeleted, result.SizeFreed)
	}

	return result, nil
}
