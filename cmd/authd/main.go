// Command authd runs the credential management and audit service.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/fcglabs/authd/internal/audit"
	"github.com/fcglabs/authd/internal/config"
	"github.com/fcglabs/authd/internal/events"
	"github.com/fcglabs/authd/internal/flows"
	"github.com/fcglabs/authd/internal/httpapi"
	"github.com/fcglabs/authd/internal/logging"
	"github.com/fcglabs/authd/internal/store"
	"github.com/fcglabs/authd/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// An invalid signing key is fatal here, before any listener is bound.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqldb.Close()

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := store.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	manager := store.NewManager(db,
		store.WithBcryptCost(cfg.BcryptCost),
		store.WithLockoutPolicy(cfg.Lockout.MaxAttempts, cfg.Lockout.Window),
		store.WithDeterministicIDs(cfg.DeterministicIDs),
	)
	manager.MustValidate()

	bus := events.NewBus()
	audit.NewHandler(manager.Audit(), logger).Bind(bus)

	tokens, err := token.NewService(
		cfg.JWT.SigningKey,
		cfg.JWT.Duration(),
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		token.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	svc := flows.NewService(manager.Users(), manager, tokens, bus, flows.WithLogger(logger))
	srv := httpapi.NewServer(svc, manager.Audit(), tokens, httpapi.WithLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", cfg.HTTPAddr)
		errCh <- srv.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	return srv.Shutdown()
}
