// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package store connects to PostgreSQL and manages the schema.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/yaug/yaug/pkg/secret"
)

// PoolOptions tunes the connection pool and the startup connectivity check.
type PoolOptions struct {
	MaxConns int32 `koanf:"max_conns" yaml:"max_conns"`
	// ConnectRetries bounds how many times the initial ping is retried.
	ConnectRetries uint64 `koanf:"connect_retries" yaml:"connect_retries"`
	// ConnectBackoff is the first retry delay; later delays double up to 5s.
	ConnectBackoff time.Duration `koanf:"connect_backoff" yaml:"connect_backoff"`
}

// DefaultPoolOptions returns the pool settings used when none are configured.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:       10,
		ConnectRetries: 5,
		ConnectBackoff: 250 * time.Millisecond,
	}
}

// Connect opens a pgx pool and waits until the database answers a ping,
// retrying with exponential backoff. The database may still be starting
// when the service is.
func Connect(ctx context.Context, databaseURL secret.Secret[string], opts PoolOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL.Expose())
	if err != nil {
		// pgx redacts the password in parse errors.
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := opts.ConnectBackoff
	if backoff <= 0 {
		backoff = DefaultPoolOptions().ConnectBackoff
	}
	b := retry.WithCappedDuration(5*time.Second,
		retry.WithMaxRetries(opts.ConnectRetries, retry.NewExponential(backoff)))

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not reachable yet", "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping").
			With("attempts", attempt).
			Wrap(err)
	}

	logger.InfoContext(ctx, "database connected",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns)
	return pool, nil
}
