package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ruleworks/arbiter/pkg/audit"
	"ruleworks/arbiter/pkg/config"
	"ruleworks/arbiter/pkg/engine"
	"ruleworks/arbiter/pkg/loader"
	"ruleworks/arbiter/pkg/server"
	"ruleworks/arbiter/pkg/telemetry/logging"
	"ruleworks/arbiter/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	rulesetDir    string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rule evaluation server",
	Long: `Start the rule evaluation server with the specified configuration.

The server loads every rule document from the configured directory,
registers the resulting rule sets, and serves evaluation requests on
/v1/execute.

Examples:
  # Start with default config
  arbiter serve

  # Start with custom config
  arbiter serve --config /etc/arbiter/config.yaml

  # Override the ruleset directory
  arbiter serve --rulesets ./rulesets

  # Validate config and rule documents without starting
  arbiter serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveFlags.rulesetDir, "rulesets", "", "override ruleset directory")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and rule documents without starting")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.rulesetDir != "" {
		cfg.Rulesets.Directory = serveFlags.rulesetDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	var engineMetrics *metrics.EngineMetrics
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		engineMetrics = metrics.NewEngineMetrics(cfg.Metrics.Namespace, registry)
	}

	// Audit
	var observer engine.ExecutionObserver
	if cfg.Audit.Enabled {
		storage, err := openAuditStorage(cfg)
		if err != nil {
			return err
		}
		recorder := audit.NewRecorder(storage, &audit.RecorderConfig{
			BufferSize: cfg.Audit.BufferSize,
		}, logger)
		defer recorder.Close()
		observer = recorder

		pruner := audit.NewPruner(storage, time.Duration(cfg.Audit.Retention.Days)*24*time.Hour, logger)
		scheduler, err := audit.NewScheduler(pruner, &audit.RetentionConfig{
			Schedule: cfg.Audit.Retention.Schedule,
		}, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	eng := engine.NewEngine(&engine.Config{
		Logger:   logger,
		Metrics:  engineMetrics,
		Observer: observer,
	})

	directory := loader.NewDirectory(cfg.Rulesets.Directory, eng, logger)
	loaded, err := directory.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load rule documents: %w", err)
	}
	logger.Info("rule documents loaded",
		"dir", cfg.Rulesets.Directory,
		"rulesets", loaded,
	)

	if serveFlags.dryRun {
		fmt.Printf("Configuration valid, %d rule sets loaded\n", loaded)
		return nil
	}

	if cfg.Rulesets.Watch {
		watcher := loader.NewWatcher(directory, cfg.Rulesets.DebounceInterval, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("ruleset watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(cfg, eng, metrics.Handler(registry), logger)
	return srv.Start(ctx)
}

func openAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		return audit.NewSQLiteStorage(&audit.SQLiteConfig{Path: cfg.Audit.SQLitePath})
	case "memory":
		return audit.NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unsupported audit backend %q", cfg.Audit.Backend)
}
