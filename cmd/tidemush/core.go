// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tidemush/tidemush/internal/logging"
	"github.com/tidemush/tidemush/internal/observability"
	"github.com/tidemush/tidemush/internal/store"
	"github.com/tidemush/tidemush/internal/world"
)

// Default values for core command flags.
const (
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
	defaultLogLevel    = "info"

	shutdownTimeout = 5 * time.Second
)

// NewCoreCmd creates the core subcommand.
func NewCoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core",
		Short: "Start the core process (world state, accounts)",
		Long: `Start the core process which holds the world state: accounts,
the containment graph, object permissions, and scripted object creation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCore(cmd)
		},
	}

	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	return cmd
}

func runCore(cmd *cobra.Command) error {
	cfg, err := LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url is required (flag, config file, or DATABASE_URL)")
	}

	logging.SetDefault("tidemush", version, cfg.LogFormat, cfg.LogLevel)

	slog.Info("starting core process",
		"log_format", cfg.LogFormat,
		"metrics_addr", cfg.MetricsAddr,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	slog.Info("connected to database")

	svc := buildServices(pool)

	// A missing root account usually means the operator skipped seeding.
	if _, err := svc.Accounts.GetByUsername(ctx, "root"); err != nil {
		if !errors.Is(err, world.ErrNotFound) {
			return oops.Code("STARTUP_CHECK_FAILED").With("operation", "look up root account").Wrap(err)
		}
		slog.Warn("root account not found; run 'tidemush seed' to create it")
	}

	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.MetricsAddr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Core process started")
	slog.Info("core process ready")

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a server's error channel
// reports a failure, so the whole process shuts down rather than limping
// on without its endpoints. Exits when the channel closes or the context
// is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
