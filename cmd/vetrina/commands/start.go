package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarchetti/vetrina/internal/api"
	"github.com/dmarchetti/vetrina/internal/api/handlers"
	"github.com/dmarchetti/vetrina/internal/logger"
	catalogstore "github.com/dmarchetti/vetrina/pkg/catalog/store"
	"github.com/dmarchetti/vetrina/pkg/media/janitor"
	"github.com/dmarchetti/vetrina/pkg/media/reconcile"
	s3store "github.com/dmarchetti/vetrina/pkg/media/store/s3"
	"github.com/dmarchetti/vetrina/pkg/metrics"
	prommetrics "github.com/dmarchetti/vetrina/pkg/metrics/prometheus"
	"github.com/dmarchetti/vetrina/pkg/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Vetrina server",
	Long: `Start the Vetrina server in the foreground.

The server runs the admin API, the scheduled media reconciliation job,
and the hourly temp-file sweep. It stops gracefully on SIGINT/SIGTERM.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting vetrina", "version", Version, "commit", Commit)

	// Metrics are opt-in. When disabled, no collectors are registered and
	// the instrumented code paths see nil recorders.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metrics.Handler(),
		}
		go func() {
			logger.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}
	mediaMetrics := prommetrics.NewMediaMetrics()

	catalog, err := catalogstore.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Error("failed to close catalog database", "error", err)
		}
	}()

	objects, err := s3store.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	defer func() {
		if err := objects.Close(); err != nil {
			logger.Error("failed to close object storage", "error", err)
		}
	}()

	engine := reconcile.New(catalog, objects, reconcile.Config{
		GracePeriod: cfg.Media.GracePeriod,
		Metrics:     mediaMetrics,
	})
	jan := janitor.New(janitor.Config{
		Dir:       cfg.Media.StagingDir,
		Retention: cfg.Media.TempRetention,
		Metrics:   mediaMetrics,
	})

	sched := scheduler.New(cfg.Media.RunTimeout)
	if err := sched.AddJob("media-reconcile", cfg.Media.ReconcileSchedule, func(ctx context.Context) error {
		_, err := engine.Run(ctx)
		if errors.Is(err, reconcile.ErrRunInProgress) {
			// A manually triggered run is still going; the next tick
			// will catch up.
			return nil
		}
		return err
	}); err != nil {
		return fmt.Errorf("failed to schedule reconciliation job: %w", err)
	}
	if err := sched.AddJob("temp-cleanup", cfg.Media.TempCleanupSchedule, func(ctx context.Context) error {
		_, err := jan.Sweep(ctx)
		if errors.Is(err, janitor.ErrSweepInProgress) {
			return nil
		}
		return err
	}); err != nil {
		return fmt.Errorf("failed to schedule temp cleanup job: %w", err)
	}
	sched.Start()
	logger.Info("scheduler started",
		"next_reconcile", sched.NextRun("media-reconcile").Format(time.RFC3339),
		"next_temp_cleanup", sched.NextRun("temp-cleanup").Format(time.RFC3339))

	server, err := api.NewServer(cfg.API,
		handlers.NewMediaHandler(engine, jan),
		map[string]handlers.HealthChecker{
			"database": catalog,
			"storage":  objects,
		})
	if err != nil {
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown incomplete", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("vetrina stopped")
	return nil
}
