// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaug/yaug/internal/config"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print an argon2id hash for a password",
		Long: `Read a password from the terminal (or one line of stdin) and print its
PHC-encoded argon2id hash under the configured hasher parameters.`,
		Args: cobra.NoArgs,
		RunE: runHashPassword,
	}
	config.RegisterLogFlags(cmd.Flags())
	return cmd
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	password, err := readPassword(cmd, "Password: ", true)
	if err != nil {
		return err
	}

	hash, err := hashOffloaded(cmd.Context(), cfg, newLogger(cmd, cfg), password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash.Expose())
	return err
}
