package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dmarchetti/vetrina/internal/api/auth"
	"github.com/dmarchetti/vetrina/internal/api/handlers"
	"github.com/dmarchetti/vetrina/internal/logger"
)

// Server provides the admin API HTTP server.
//
// The server exposes health probes and the manual maintenance triggers.
// It supports graceful shutdown with a configurable timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates the admin API server in a stopped state.
//
// The JWT secret must be at least 32 characters, set via config or the
// VETRINA_API_SECRET environment variable.
func NewServer(config Config, mediaHandler *handlers.MediaHandler, healthChecks map[string]handlers.HealthChecker) (*Server, error) {
	config.ApplyDefaults()

	secret := config.GetJWTSecret()
	jwtService, err := auth.NewService(auth.Config{
		Secret:        secret,
		TokenDuration: config.JWT.TokenDuration,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSecretLength) {
			return nil, fmt.Errorf("JWT secret must be at least 32 characters; set via %s env var or config", EnvAPISecret)
		}
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := NewRouter(jwtService, mediaHandler, handlers.NewHealthHandler(healthChecks))

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config: config,
	}, nil
}

// Start begins serving requests. It blocks until the server stops.
// Returns nil on graceful shutdown.
func (s *Server) Start() error {
	logger.Info("admin API listening", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until the context expires. Safe to call multiple times.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Info("shutting down admin API")
		err = s.server.Shutdown(ctx)
	})
	return err
}
