// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

//go:build integration

package postgres_test

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/auth/postgres"
	"github.com/yaug/yaug/internal/store"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

var _ = Describe("AccountRepository", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		pool      *pgxpool.Pool
		repo      *postgres.AccountRepository
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:18-alpine",
			tcpostgres.WithDatabase("yaug_test"),
			tcpostgres.WithUsername("yaug"),
			tcpostgres.WithPassword("yaug"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2)),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
		dbURL := secret.New(connStr)

		migrator, err := store.NewMigrator(dbURL)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, dbURL, store.DefaultPoolOptions(), slog.New(slog.DiscardHandler))
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewAccountRepository(pool)
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	var created *auth.Account

	It("creates an account", func() {
		var err error
		created, err = auth.NewAccount("Alice@Example.com", secret.New("$argon2id$v=19$first"))
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Create(ctx, created)).To(Succeed())
	})

	It("looks up credentials case-insensitively", func() {
		cred, err := repo.Lookup(ctx, "alice@example.COM")
		Expect(err).NotTo(HaveOccurred())
		Expect(cred.UserID).To(Equal(created.UserID))
		Expect(cred.PasswordHash.Expose()).To(Equal("$argon2id$v=19$first"))
	})

	It("rejects a second account with the same email in another case", func() {
		dup, err := auth.NewAccount("ALICE@example.com", secret.New("$argon2id$v=19$other"))
		Expect(err).NotTo(HaveOccurred())

		err = repo.Create(ctx, dup)
		Expect(errutil.Code(err)).To(Equal("ACCOUNT_EMAIL_TAKEN"))
	})

	It("reports unknown emails as not found", func() {
		_, err := repo.Lookup(ctx, "nobody@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("gets the account by user id", func() {
		acct, err := repo.GetByUserID(ctx, created.UserID)
		Expect(err).NotTo(HaveOccurred())
		Expect(acct.Email).To(Equal("Alice@Example.com"))
		Expect(acct.CreatedAt).To(BeTemporally("~", created.CreatedAt, time.Millisecond))
	})

	It("replaces the password hash", func() {
		Expect(repo.UpdatePasswordHash(ctx, created.UserID, secret.New("$argon2id$v=19$second"))).To(Succeed())

		cred, err := repo.Lookup(ctx, "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(cred.PasswordHash.Expose()).To(Equal("$argon2id$v=19$second"))
	})

	It("reports an update of an unknown user as not found", func() {
		err := repo.UpdatePasswordHash(ctx, uuid.New(), secret.New("$argon2id$v=19$x"))
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
