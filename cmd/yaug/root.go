// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yaug/yaug/internal/config"
	"github.com/yaug/yaug/internal/logging"
)

const serviceName = "yaug"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the yaug CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yaug",
		Short: "yaug - password login service",
		Long: `yaug authenticates users by email and password against argon2id
hashes in PostgreSQL and binds successful logins to server-side sessions.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd(nil))
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig loads and validates the configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := config.Resolve(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs go to stderr so command
// output on stdout stays clean.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.Setup(serviceName, version, cfg.Log, cmd.ErrOrStderr())
}
