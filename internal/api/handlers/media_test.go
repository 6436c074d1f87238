package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmarchetti/vetrina/pkg/media/janitor"
	"github.com/dmarchetti/vetrina/pkg/media/reconcile"
)

type fakeReconciler struct {
	result reconcile.Result
	err    error
}

func (f *fakeReconciler) Run(ctx context.Context) (reconcile.Result, error) {
	return f.result, f.err
}

type fakeCleaner struct {
	result janitor.Result
	err    error
}

func (f *fakeCleaner) Sweep(ctx context.Context) (janitor.Result, error) {
	return f.result, f.err
}

func TestCleanup(t *testing.T) {
	t.Run("successful run returns counts", func(t *testing.T) {
		h := NewMediaHandler(&fakeReconciler{
			result: reconcile.Result{
				OrphanedFilesRemoved:    3,
				OrphansAttempted:        5,
				DanglingReferencesFixed: 2,
			},
		}, &fakeCleaner{})

		rec := httptest.NewRecorder()
		h.Cleanup(rec, httptest.NewRequest(http.MethodPost, "/media/cleanup", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body map[string]int
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if body["orphanedFilesRemoved"] != 3 {
			t.Errorf("expected orphanedFilesRemoved=3, got %d", body["orphanedFilesRemoved"])
		}
		if body["danglingReferencesFixed"] != 2 {
			t.Errorf("expected danglingReferencesFixed=2, got %d", body["danglingReferencesFixed"])
		}
		if body["orphansAttempted"] != 5 {
			t.Errorf("expected orphansAttempted=5, got %d", body["orphansAttempted"])
		}
	})

	t.Run("busy engine returns conflict", func(t *testing.T) {
		h := NewMediaHandler(&fakeReconciler{err: reconcile.ErrRunInProgress}, &fakeCleaner{})

		rec := httptest.NewRecorder()
		h.Cleanup(rec, httptest.NewRequest(http.MethodPost, "/media/cleanup", nil))

		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != ContentTypeProblemJSON {
			t.Errorf("expected problem+json content type, got %q", ct)
		}
	})

	t.Run("aborted run returns bad gateway, not zeros", func(t *testing.T) {
		h := NewMediaHandler(&fakeReconciler{err: errors.New("bucket unavailable")}, &fakeCleaner{})

		rec := httptest.NewRecorder()
		h.Cleanup(rec, httptest.NewRequest(http.MethodPost, "/media/cleanup", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}

func TestCleanupTemp(t *testing.T) {
	t.Run("successful sweep returns human-readable size", func(t *testing.T) {
		h := NewMediaHandler(&fakeReconciler{}, &fakeCleaner{
			result: janitor.Result{FilesDeleted: 4, SizeFreed: 1536},
		})

		rec := httptest.NewRecorder()
		h.CleanupTemp(rec, httptest.NewRequest(http.MethodPost, "/media/cleanup/temp", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body struct {
			FilesDeleted int    `json:"filesDeleted"`
			SizeFreed    string `json:"sizeFreed"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if body.FilesDeleted != 4 {
			t.Errorf("expected filesDeleted=4, got %d", body.FilesDeleted)
		}
		if body.SizeFreed != "1.5 KiB" {
			t.Errorf("expected sizeFreed='1.5 KiB', got %q", body.SizeFreed)
		}
	})

	t.Run("busy janitor returns conflict", func(t *testing.T) {
		h := NewMediaHandler(&fakeReconciler{}, &fakeCleaner{err: janitor.ErrSweepInProgress})

		rec := httptest.NewRecorder()
		h.CleanupTemp(rec, httptest.NewRequest(http.MethodPost, "/media/cleanup/temp", nil))

		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("sweep failure returns server error", func(t *testing.T) {
		h := NewMediaHandler(&fakeReconciler{}, &fakeCleaner{err: errors.New("permission denied")})

		rec := httptest.NewRecorder()
		h.CleanupTemp(rec, httptest.NewRequest(http.MethodPost, "/media/cleanup/temp", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

type fakeChecker struct{ err error }

func (f *fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		h := NewHealthHandler(nil)
		rec := httptest.NewRecorder()
		h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("expected status=ok, got %q", body["status"])
		}
	})

	t.Run("readiness with healthy dependencies", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthChecker{
			"database": &fakeChecker{},
			"storage":  &fakeChecker{},
		})
		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("readiness with failing dependency", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthChecker{
			"database": &fakeChecker{},
			"storage":  &fakeChecker{err: errors.New("connection refused")},
		})
		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}
