// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tidemush/tidemush/internal/store"
)

// migrateConfig holds configuration for the migrate subcommand.
type migrateConfig struct {
	down   bool
	status bool
	force  int
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply all pending database migrations against the PostgreSQL database.
With --down, roll back all migrations instead (destroys all data).
With --status, print the current schema version without changing anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, cfg)
		},
	}

	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations (destroys all data)")
	cmd.Flags().BoolVar(&cfg.status, "status", false, "print the current schema version and exit")
	cmd.Flags().IntVar(&cfg.force, "force", -1, "force the schema version to recover from a dirty state")

	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *migrateConfig) error {
	conf, err := LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if conf.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url is required (flag, config file, or DATABASE_URL)")
	}

	migrator, err := store.NewMigrator(conf.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	switch {
	case cfg.status:
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			cmd.Println("No migrations applied")
			return nil
		}
		cmd.Printf("Schema version: %d (dirty: %v)\n", version, dirty)
		return nil

	case cfg.force >= 0:
		if err := migrator.Force(cfg.force); err != nil {
			return err
		}
		cmd.Printf("Schema version forced to %d\n", cfg.force)
		return nil

	case cfg.down:
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("Rollback completed")
		return nil

	default:
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
		return nil
	}
}
