package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmarchetti/vetrina/internal/api/auth"
	"github.com/dmarchetti/vetrina/internal/api/handlers"
	apiMiddleware "github.com/dmarchetti/vetrina/internal/api/middleware"
	"github.com/dmarchetti/vetrina/internal/logger"
)

// cleanupTimeout bounds the synchronous maintenance triggers. It is far
// larger than the default request timeout because a reconciliation run
// lists the whole bucket before responding.
const cleanupTimeout = 10 * time.Minute

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - POST /media/cleanup - run media reconciliation (admin)
//   - POST /media/cleanup/temp - run temp file cleanup (admin)
//   - POST /api/v1/media/cleanup - alias of /media/cleanup
//   - POST /api/v1/media/cleanup/temp - alias of /media/cleanup/temp
func NewRouter(jwtService *auth.Service, mediaHandler *handlers.MediaHandler, healthHandler *handlers.HealthHandler) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// Health routes - unauthenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Route("/health", func(r chi.Router) {
			r.Get("/", healthHandler.Liveness)
			r.Get("/ready", healthHandler.Readiness)
		})

		// Root redirect to health for convenience
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
		})
	})

	// Maintenance triggers - admin only, long timeout
	mountCleanup := func(r chi.Router) {
		r.Use(middleware.Timeout(cleanupTimeout))
		r.Use(apiMiddleware.JWTAuth(jwtService))
		r.Use(apiMiddleware.RequireAdmin())

		r.Post("/media/cleanup", mediaHandler.Cleanup)
		r.Post("/media/cleanup/temp", mediaHandler.CleanupTemp)
	}

	r.Group(mountCleanup)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(mountCleanup)
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger logs requests using the internal logger.
//
// Request start is logged at DEBUG; completion at INFO, except health
// probes which complete at DEBUG to keep orchestrator noise down.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
