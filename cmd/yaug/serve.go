// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/auth/postgres"
	"github.com/yaug/yaug/internal/config"
	"github.com/yaug/yaug/internal/observability"
	"github.com/yaug/yaug/internal/offload"
	"github.com/yaug/yaug/internal/session"
	sessionredis "github.com/yaug/yaug/internal/session/redis"
	"github.com/yaug/yaug/internal/store"
	"github.com/yaug/yaug/internal/web"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

// AccountDB is the database handle serve needs. *pgxpool.Pool satisfies it.
type AccountDB interface {
	postgres.DBTX
	Ping(ctx context.Context) error
	Close()
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ConnectDB opens the account database.
	// Default: store.Connect
	ConnectDB func(ctx context.Context, url secret.Secret[string], opts store.PoolOptions, logger *slog.Logger) (AccountDB, error)

	// Migrate applies pending migrations when auto_migrate is set.
	// Default: store.Migrator.Up
	Migrate func(url secret.Secret[string]) error

	// Listen binds the web listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.ConnectDB == nil {
		out.ConnectDB = func(ctx context.Context, url secret.Secret[string], opts store.PoolOptions, logger *slog.Logger) (AccountDB, error) {
			return store.Connect(ctx, url, opts, logger)
		}
	}
	if out.Migrate == nil {
		out.Migrate = migrateUp
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	return &out
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *ServeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the login pages",
		Long: `Serve the login, logout, and account pages, plus metrics and health
probes on a separate listener. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, deps.withDefaults())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, deps *ServeDeps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if err := cfg.RequireSessionSecret(); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := deps.Migrate(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	db, err := deps.ConnectDB(ctx, cfg.Database.URL, cfg.Database.PoolOptions, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	pool, err := offload.New(cfg.Offload, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()
		if err := pool.Close(closeCtx); err != nil {
			errutil.LogError(logger, "offload pool did not drain", err)
		}
	}()

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeSessions()

	var ready atomic.Bool
	var obs *observability.Server
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	if cfg.Observability.Addr != "" {
		obs = observability.NewServer(cfg.Observability.Addr, ready.Load, logger)
		metrics = obs.Metrics()
	}

	handler, err := buildHandler(cfg, db, pool, sessions, metrics, logger)
	if err != nil {
		return err
	}

	listener, err := deps.Listen("tcp", cfg.Web.Addr)
	if err != nil {
		return oops.Code("WEB_LISTEN_FAILED").With("addr", cfg.Web.Addr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("WEB_SERVE_FAILED").Wrap(err)
		}
		return nil
	})
	if obs != nil {
		obsErrCh, err := obs.Start()
		if err != nil {
			_ = listener.Close()
			return err
		}
		g.Go(func() error {
			select {
			case err, ok := <-obsErrCh:
				if ok && err != nil {
					return err
				}
			case <-gctx.Done():
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, oops.Code("WEB_SHUTDOWN_FAILED").Wrap(err))
		}
		if obs != nil {
			if err := obs.Stop(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	ready.Store(true)
	logger.Info("yaug ready", "addr", listener.Addr().String())

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// buildHandler wires the credential and session components into the web
// handler.
func buildHandler(
	cfg *config.Config,
	db postgres.DBTX,
	pool *offload.Pool,
	sessions session.Store,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (http.Handler, error) {
	repo := postgres.NewAccountRepository(db)

	hasher, err := auth.NewArgon2idHasher(cfg.Hasher)
	if err != nil {
		return nil, err
	}
	validator, err := auth.NewValidator(repo, hasher, pool, logger)
	if err != nil {
		return nil, err
	}
	rehasher, err := auth.NewRehasher(hasher, repo, pool)
	if err != nil {
		return nil, err
	}
	manager, err := session.NewManager(sessions, cfg.Session.CookieSecret, cfg.Session.Options, logger)
	if err != nil {
		return nil, err
	}

	return web.NewHandler(web.Deps{
		Sessions:  manager,
		Validator: validator,
		Accounts:  repo,
		Rehasher:  rehasher,
		Metrics:   metrics,
		Logger:    logger,
	})
}

// newSessionStore returns the Redis store when an address is configured and
// the in-process store otherwise. The returned func releases it.
func newSessionStore(ctx context.Context, cfg config.RedisConfig) (session.Store, func(), error) {
	if cfg.Addr == "" {
		return session.NewMemoryStore(), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password.Expose(),
		DB:       cfg.DB,
	})
	rs := sessionredis.NewStore(client, cfg.Prefix)
	if err := rs.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return rs, func() { _ = client.Close() }, nil
}
