package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/S1riyS/graphfs/pkg/database/postgresql/migrations"
	"github.com/S1riyS/graphfs/pkg/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // database/sql driver used by golang-migrate
)

const migrationsTable = "schema_migrations"

// Migrate applies every embedded migration that is not applied yet.
// golang-migrate takes an advisory lock, so concurrent instances are safe.
func Migrate(ctx context.Context, dsn string) error {
	const op = "postgresql.Migrate"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Info("Running database migrations")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("%s: open: %w", op, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping: %w", op, err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return fmt.Errorf("%s: driver: %w", op, err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("%s: source: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No migrations to apply (database is up to date)")
	case err != nil:
		return fmt.Errorf("%s: up: %w", op, err)
	default:
		logger.Info("Migrations completed successfully")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%s: version: %w", op, err)
	}
	logger.Info("Current schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	if dirty {
		logger.Warn("Database schema is in dirty state - manual intervention may be required")
	}

	return nil
}
