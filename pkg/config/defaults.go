package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmarchetti/vetrina/internal/api"
	"github.com/dmarchetti/vetrina/internal/bytesize"
	"github.com/dmarchetti/vetrina/pkg/catalog/store"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyShutdownTimeoutDefaults(cfg)
	applyDatabaseDefaults(&cfg.Database)
	applyMediaDefaults(&cfg.Media)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(cfg *store.Config) {
	cfg.ApplyDefaults()
}

// applyMediaDefaults sets staging and maintenance job defaults.
func applyMediaDefaults(cfg *MediaConfig) {
	if cfg.StagingDir == "" {
		cfg.StagingDir = filepath.Join(os.TempDir(), "vetrina-staging")
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 25 * bytesize.MiB
	}
	if cfg.TempRetention == 0 {
		cfg.TempRetention = time.Hour
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = 5 * time.Minute
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	if cfg.ReconcileSchedule == "" {
		cfg.ReconcileSchedule = "0 3 * * *"
	}
	if cfg.TempCleanupSchedule == "" {
		cfg.TempCleanupSchedule = "0 * * * *"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false; port defaults only when enabled.
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *api.Config) {
	cfg.ApplyDefaults()
}

// GetDefaultConfig returns a Config with all default values applied.
//
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
	}
	cfg.Storage.Bucket = "vetrina-media"

	ApplyDefaults(cfg)
	return cfg
}
