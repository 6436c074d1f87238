package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmarchetti/vetrina/internal/api/auth"
	"github.com/dmarchetti/vetrina/internal/api/handlers"
	"github.com/dmarchetti/vetrina/pkg/media/janitor"
	"github.com/dmarchetti/vetrina/pkg/media/reconcile"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubReconciler struct{}

func (stubReconciler) Run(ctx context.Context) (reconcile.Result, error) {
	return reconcile.Result{OrphanedFilesRemoved: 1}, nil
}

type stubCleaner struct{}

func (stubCleaner) Sweep(ctx context.Context) (janitor.Result, error) {
	return janitor.Result{FilesDeleted: 1}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()
	jwtService, err := auth.NewService(auth.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}

	mediaHandler := handlers.NewMediaHandler(stubReconciler{}, stubCleaner{})
	healthHandler := handlers.NewHealthHandler(nil)
	return NewRouter(jwtService, mediaHandler, healthHandler), jwtService
}

func TestRouterHealthUnauthenticated(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for /health, got %d", rec.Code)
	}
}

func TestRouterCleanupRequiresAuth(t *testing.T) {
	router, jwtService := newTestRouter(t)

	paths := []string{
		"/media/cleanup",
		"/media/cleanup/temp",
		"/api/v1/media/cleanup",
		"/api/v1/media/cleanup/temp",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			// No token
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 without token, got %d", rec.Code)
			}

			// Non-admin token
			viewerToken, _, err := jwtService.GenerateToken("viewer", "viewer")
			if err != nil {
				t.Fatalf("failed to generate token: %v", err)
			}
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set("Authorization", "Bearer "+viewerToken)
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusForbidden {
				t.Errorf("expected 403 for non-admin, got %d", rec.Code)
			}

			// Admin token
			adminToken, _, err := jwtService.GenerateToken("ops", auth.RoleAdmin)
			if err != nil {
				t.Fatalf("failed to generate token: %v", err)
			}
			req = httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set("Authorization", "Bearer "+adminToken)
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200 for admin, got %d", rec.Code)
			}
		})
	}
}
