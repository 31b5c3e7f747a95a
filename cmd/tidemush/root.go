// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the tidemush CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tidemush",
		Short: "Tidemush - a persistent scriptable world server",
		Long: `Tidemush is the persistent world core of a multiplayer text game:
accounts, a containment graph of scriptable objects, per-object
permissions, and versioned object code.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewCoreCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
