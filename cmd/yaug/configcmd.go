// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/yaug/yaug/internal/config"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Resolve(configFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err
			}
			if path != "" {
				cmd.PrintErrf("# loaded from %s\n", path)
			}
			if err := cfg.WriteYAML(cmd.OutOrStdout()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				cmd.PrintErrf("warning: configuration is invalid: %v\n", err)
			}
			return nil
		},
	}
	config.RegisterFlags(show.Flags())

	cmd.AddCommand(show)
	return cmd
}
