package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmarchetti/vetrina/internal/logger"
	catalogstore "github.com/dmarchetti/vetrina/pkg/catalog/store"
	"github.com/dmarchetti/vetrina/pkg/media/janitor"
	"github.com/dmarchetti/vetrina/pkg/media/reconcile"
	s3store "github.com/dmarchetti/vetrina/pkg/media/store/s3"
)

var cleanupTemp bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run a media cleanup pass and exit",
	Long: `Run a single media maintenance pass against the configured database
and bucket, print the result as JSON, and exit.

By default this runs the full reconciliation (orphaned object deletion plus
dangling reference repair). With --temp it sweeps the upload staging
directory instead.

This is the same code path the scheduler and the admin API use.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupTemp, "temp", false, "Sweep the upload staging directory instead of reconciling")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Media.RunTimeout)
	defer cancel()

	var result any

	if cleanupTemp {
		jan := janitor.New(janitor.Config{
			Dir:       cfg.Media.StagingDir,
			Retention: cfg.Media.TempRetention,
		})
		result, err = jan.Sweep(ctx)
		if err != nil {
			return fmt.Errorf("temp cleanup failed: %w", err)
		}
	} else {
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
		})
		result, err = engine.Run(ctx)
		if err != nil {
			return fmt.Errorf("reconciliation failed: %w", err)
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
