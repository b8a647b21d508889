// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/auth/postgres"
	"github.com/yaug/yaug/internal/config"
	"github.com/yaug/yaug/internal/offload"
	"github.com/yaug/yaug/internal/store"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

// accountCreator stores new accounts.
type accountCreator interface {
	Create(ctx context.Context, account *auth.Account) error
}

// openAccounts is replaced in tests. The returned func releases the
// connection.
var openAccounts = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (accountCreator, func(), error) {
	db, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.PoolOptions, logger)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewAccountRepository(db), db.Close, nil
}

const defaultGeneratedLength = 20

type userAddOptions struct {
	email    string
	generate bool
	length   int
}

// NewUserCmd creates the user subcommand.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	opts := &userAddOptions{}
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Long: `Create an account for --email. The password is read from the terminal
without echo, or from one line of stdin. With --generate a random password
meeting the account policy is created and printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUserAdd(cmd, opts)
		},
	}
	add.Flags().StringVar(&opts.email, "email", "", "account email address")
	add.Flags().BoolVar(&opts.generate, "generate", false, "generate a random password and print it")
	add.Flags().IntVar(&opts.length, "length", defaultGeneratedLength, "generated password length")
	_ = add.MarkFlagRequired("email")
	config.RegisterLogFlags(add.Flags())

	cmd.AddCommand(add)
	return cmd
}

func runUserAdd(cmd *cobra.Command, opts *userAddOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	email, err := auth.NormalizeEmail(opts.email)
	if err != nil {
		return err
	}

	var password secret.Secret[string]
	if opts.generate {
		password, err = auth.GeneratePassword(opts.length)
	} else {
		password, err = readPassword(cmd, "Password: ", true)
	}
	if err != nil {
		return err
	}
	if err := auth.ValidateAccountPassword(password); err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := newLogger(cmd, cfg)

	hash, err := hashOffloaded(ctx, cfg, logger, password)
	if err != nil {
		return err
	}
	acct, err := auth.NewAccount(email, hash)
	if err != nil {
		return err
	}

	accounts, release, err := openAccounts(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	if err := accounts.Create(ctx, acct); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created account %s (%s)\n", acct.Email, acct.UserID)
	if opts.generate {
		fmt.Fprintf(out, "Password: %s\n", password.Expose())
	}
	return nil
}

// hashOffloaded hashes password on a short-lived offload pool, the same
// path login verification takes.
func hashOffloaded(ctx context.Context, cfg *config.Config, logger *slog.Logger, password secret.Secret[string]) (secret.Secret[string], error) {
	hasher, err := auth.NewArgon2idHasher(cfg.Hasher)
	if err != nil {
		return secret.Secret[string]{}, err
	}
	pool, err := offload.New(offload.Options{Workers: 1}, logger)
	if err != nil {
		return secret.Secret[string]{}, err
	}
	defer func() {
		if err := pool.Close(context.WithoutCancel(ctx)); err != nil {
			errutil.LogErrorContext(ctx, logger, "offload pool close failed", err)
		}
	}()

	hash, err := offload.Do(ctx, pool, func(context.Context) (secret.Secret[string], error) {
		return hasher.Hash(password)
	})
	if err != nil {
		return secret.Secret[string]{}, oops.Code("CLI_HASH_FAILED").Wrap(err)
	}
	return hash, nil
}
