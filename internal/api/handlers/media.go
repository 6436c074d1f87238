package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmarchetti/vetrina/internal/bytesize"
	"github.com/dmarchetti/vetrina/pkg/media/janitor"
	"github.com/dmarchetti/vetrina/pkg/media/reconcile"
)

// Reconciler runs a media reconciliation pass. Implemented by
// reconcile.Engine.
type Reconciler interface {
	Run(ctx context.Context) (reconcile.Result, error)
}

// TempCleaner sweeps the upload staging directory. Implemented by
// janitor.Janitor.
type TempCleaner interface {
	Sweep(ctx context.Context) (janitor.Result, error)
}

// MediaHandler exposes the manual triggers for the maintenance jobs.
// Both triggers run the same code paths as the scheduled jobs.
type MediaHandler struct {
	reconciler Reconciler
	cleaner    TempCleaner
}

// NewMediaHandler creates a media maintenance handler.
func NewMediaHandler(reconciler Reconciler, cleaner TempCleaner) *MediaHandler {
	return &MediaHandler{reconciler: reconciler, cleaner: cleaner}
}

type cleanupResponse struct {
	OrphanedFilesRemoved    int `json:"orphanedFilesRemoved"`
	OrphansAttempted        int `json:"orphansAttempted"`
	DanglingReferencesFixed int `json:"danglingReferencesFixed"`
	CleanupErrors           int `json:"cleanupErrors,omitempty"`
}

type tempCleanupResponse struct {
	FilesDeleted int    `json:"filesDeleted"`
	SizeFreed    string `json:"sizeFreed"`
	Errors       int    `json:"errors,omitempty"`
}

// Cleanup handles POST /media/cleanup.
//
// Responses:
//   - 200 with reconciliation counts
//   - 409 if a run is already in progress
//   - 502 if the run aborted because a backing store was unavailable
func (h *MediaHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.Run(r.Context())
	if err != nil {
		if errors.Is(err, reconcile.ErrRunInProgress) {
			Conflict(w, "a media reconciliation run is already in progress")
			return
		}
		BadGateway(w, "media reconciliation aborted: "+err.Error())
		return
	}

	WriteJSONOK(w, cleanupResponse{
		OrphanedFilesRemoved:    result.OrphanedFilesRemoved,
		OrphansAttempted:        result.OrphansAttempted,
		DanglingReferencesFixed: result.DanglingReferencesFixed,
		CleanupErrors:           result.CleanupErrors,
	})
}

// CleanupTemp handles POST /media/cleanup/temp.
//
// Responses:
//   - 200 with the sweep counts; sizeFreed is human-readable
//   - 409 if a sweep is already in progress
//   - 500 if the staging directory could not be read
func (h *MediaHandler) CleanupTemp(w http.ResponseWriter, r *http.Request) {
	result, err := h.cleaner.Sweep(r.Context())
	if err != nil {
		if errors.Is(err, janitor.ErrSweepInProgress) {
			Conflict(w, "a temp file cleanup is already in progress")
			return
		}
		InternalServerError(w, "temp file cleanup failed: "+err.Error())
		return
	}

	WriteJSONOK(w, tempCleanupResponse{
		FilesDeleted: result.FilesDeleted,
		SizeFreed:    bytesize.Format(result.SizeFreed),
		Errors:       result.Errors,
	})
}
