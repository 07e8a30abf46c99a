package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"cloudkeep/janus/pkg/audit"
	"cloudkeep/janus/pkg/cli"
	"cloudkeep/janus/pkg/config"
	"cloudkeep/janus/pkg/daemon"
	"cloudkeep/janus/pkg/telemetry/health"
	"cloudkeep/janus/pkg/telemetry/metrics"
)

var runFlags struct {
	dryRun       bool
	noRunOnStart bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the retention daemon",
	Long: `Run retention passes continuously on the configured cron schedule.

The daemon performs one pass at startup, then repeats per the schedule.
Edits to the configuration file are picked up without a restart: retention
rules, regions, tag filters and the dry-run switch take effect on the next
pass. Audit backend, metrics and schedule changes require a restart.

Examples:
  # Run with default config, every 10 minutes
  janus run

  # Run with a custom config
  janus run --config /etc/janus/janus.yaml

  # Continuous dry-run for observation
  janus run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "report decisions without mutating tags")
	runCmd.Flags().BoolVar(&runFlags.noRunOnStart, "no-run-on-start", false, "wait for the first scheduled tick instead of running immediately")
}

// runner holds the daemon's live state. The configuration pointer is
// swapped on reload; everything else lives for the daemon's lifetime.
type runner struct {
	mu        sync.RWMutex
	cfg       *config.Config
	recorder  *audit.Recorder
	collector *metrics.Collector
	logger    *slog.Logger
}

func (r *runner) config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// job executes one retention pass against the current configuration.
func (r *runner) job(ctx context.Context) {
	cfg := r.config()
	dryRun := cfg.Retention.DryRun || runFlags.dryRun

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		r.logger.Error("failed to build discovery registry", "error", err)
		return
	}

	pass, err := buildAger(cfg, registry, r.recorder, r.collector, dryRun)
	if err != nil {
		r.logger.Error("failed to assemble retention pipeline", "error", err)
		return
	}

	report, err := pass.Run(ctx)
	if err != nil {
		r.logger.Error("retention pass failed", "error", err)
		return
	}

	r.logger.Info("retention pass finished",
		"run_id", report.RunID,
		"status", report.Status,
		"dry_run", dryRun,
		"discovered", len(report.Decisions),
		"kept", report.Kept(),
		"deleted", report.Deleted(),
	)
}

// reload re-reads the configuration file. Only retention and discovery
// settings take effect live.
func (r *runner) reload() error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	r.mu.Lock()
	old := r.cfg
	r.cfg = cfg
	r.mu.Unlock()

	if old.Schedule.Cron != cfg.Schedule.Cron {
		r.logger.Warn("schedule change requires a restart",
			"active", old.Schedule.Cron,
			"configured", cfg.Schedule.Cron,
		)
	}
	if old.Audit.Backend != cfg.Audit.Backend {
		r.logger.Warn("audit backend change requires a restart",
			"active", old.Audit.Backend,
			"configured", cfg.Audit.Backend,
		)
	}

	r.logger.Info("configuration reloaded",
		"rules", cfg.Retention.Rules,
		"regions", cfg.Discovery.Regions,
		"dry_run", cfg.Retention.DryRun,
	)
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if err := setupLogging(cfg); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger := slog.Default().With("component", "daemon")

	ctx := cli.SetupSignalHandler()

	// Audit trail
	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	var recorder *audit.Recorder
	if store != nil {
		defer store.Close()
		recorder = audit.NewRecorder(store)
	}

	// Metrics and health endpoints
	var collector *metrics.Collector
	var httpServer *http.Server
	checker := health.NewChecker(Version)

	if cfg.Telemetry.Metrics.Enabled {
		metricsCfg := metrics.Config{
			Enabled:   true,
			Listen:    cfg.Telemetry.Metrics.Listen,
			Path:      cfg.Telemetry.Metrics.Path,
			Namespace: cfg.Telemetry.Metrics.Namespace,
		}
		collector = metrics.NewCollector(metricsCfg, prometheus.NewRegistry())

		mux := http.NewServeMux()
		mux.Handle(metricsCfg.Path, collector.Handler())
		mux.Handle("/health/live", checker.LivenessHandler())
		mux.Handle("/health/ready", checker.ReadinessHandler())

		httpServer = &http.Server{
			Addr:    metricsCfg.Listen,
			Handler: mux,
		}
		go func() {
			logger.Info("metrics listener started",
				"address", metricsCfg.Listen,
				"path", metricsCfg.Path,
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	// Scheduler and config watcher
	r := &runner{
		cfg:       cfg,
		recorder:  recorder,
		collector: collector,
		logger:    logger,
	}

	scheduler := daemon.NewScheduler(cfg.Schedule.Cron, r.job)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	checker.Register("scheduler", func() health.Status {
		return health.Status{Healthy: scheduler.IsRunning()}
	})

	watcher, err := daemon.NewConfigWatcher(cfgFile, 0)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	go func() {
		if err := watcher.Watch(ctx, r.reload); err != nil {
			logger.Error("config watcher failed", "error", err)
		}
	}()

	logger.Info("daemon started",
		"schedule", cfg.Schedule.Cron,
		"rules", cfg.Retention.Rules,
		"regions", cfg.Discovery.Regions,
	)

	if !runFlags.noRunOnStart {
		r.job(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	scheduler.Stop()
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics listener shutdown failed", "error", err)
		}
	}

	return nil
}
