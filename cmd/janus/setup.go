package main

import (
	"context"
	"fmt"

	"cloudkeep/janus/pkg/ager"
	"cloudkeep/janus/pkg/audit"
	"cloudkeep/janus/pkg/audit/storage"
	"cloudkeep/janus/pkg/cloud"
	"cloudkeep/janus/pkg/cloud/aws"
	"cloudkeep/janus/pkg/config"
	"cloudkeep/janus/pkg/telemetry/logging"
	"cloudkeep/janus/pkg/telemetry/metrics"
)

// setupLogging configures the process-wide logger from configuration.
// The --verbose flag forces debug level regardless of config.
func setupLogging(cfg *config.Config) error {
	logCfg := logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}
	if verbose {
		logCfg.Level = "debug"
	}

	_, err := logging.New(logCfg)
	return err
}

// buildRegistry assembles discovery strategies and tag writers for every
// configured region.
func buildRegistry(ctx context.Context, cfg *config.Config) (*cloud.Registry, error) {
	registry := cloud.NewRegistry()
	filter := cfg.Discovery.Filter.Filter()

	for _, region := range cfg.Discovery.Regions {
		clients, err := aws.NewClients(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS clients for region %q: %w", region, err)
		}
		if err := aws.Register(registry, clients, region, filter); err != nil {
			return nil, fmt.Errorf("failed to register region %q: %w", region, err)
		}
	}

	return registry, nil
}

// openAuditStorage opens the configured audit backend. A "none" backend
// returns nil storage, which disables the audit trail.
func openAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		sqliteConfig := storage.DefaultSQLiteConfig()
		sqliteConfig.Path = cfg.Audit.SQLitePath
		return storage.NewSQLiteStorage(sqliteConfig)
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

// buildAger assembles the retention pipeline from configuration and the
// shared collaborators. Recorder and collector may be nil.
func buildAger(cfg *config.Config, registry *cloud.Registry, recorder *audit.Recorder, collector *metrics.Collector, dryRun bool) (*ager.Ager, error) {
	loc, err := cfg.Retention.Location()
	if err != nil {
		return nil, err
	}

	opts := ager.Options{
		Rules:    cfg.Retention.Rules,
		Regions:  cfg.Discovery.Regions,
		Location: loc,
		DryRun:   dryRun,
	}
	deps := ager.Deps{
		Discovery: registry,
		Mutator:   registry,
		Recorder:  recorder,
		Metrics:   collector,
	}

	return ager.New(opts, deps), nil
}
