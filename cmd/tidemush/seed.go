// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tidemush/tidemush/internal/store"
	"github.com/tidemush/tidemush/internal/world"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// The system account every world starts with.
const rootUsername = "root"

// seedConfig holds configuration for the seed subcommand.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the root system account",
		Long: `Creates the elevated root account with its avatar and sanctum through
the normal signup path. The password is read from TIDEMUSH_ROOT_PASSWORD.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig) error {
	conf, err := LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if conf.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url is required (flag, config file, or DATABASE_URL)")
	}

	// Use cmd.Context() so SIGINT/SIGTERM still interrupt the seed.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, conf.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(conf.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return err
	}
	if err := migrator.Close(); err != nil {
		slog.Warn("error closing migrator", "error", err)
	}

	svc := buildServices(pool)

	if _, err := svc.Accounts.GetByUsername(ctx, rootUsername); err == nil {
		cmd.Println("Root account already exists, skipping seed")
		return nil
	} else if !errors.Is(err, world.ErrNotFound) {
		return oops.Code("SEED_FAILED").With("operation", "look up root account").Wrap(err)
	}

	password := os.Getenv("TIDEMUSH_ROOT_PASSWORD")
	if password == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("TIDEMUSH_ROOT_PASSWORD environment variable is required to create the root account")
	}

	account, err := svc.Directory.CreateAccount(ctx, rootUsername, password)
	if err != nil {
		// Another seed may have won the race since the lookup above.
		var verr *world.ValidationError
		if errors.As(err, &verr) && verr.Field == "username" {
			cmd.Println("Root account already exists, skipping seed")
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create root account").Wrap(err)
	}

	account.Elevated = true
	if err := svc.Accounts.Update(ctx, account); err != nil {
		return oops.Code("SEED_FAILED").With("operation", "elevate root account").Wrap(err)
	}

	cmd.Println("Created root account with avatar and sanctum")
	slog.Info("root account seeded", "account_id", account.ID)

	cmd.Println("World seeding complete!")
	return nil
}
