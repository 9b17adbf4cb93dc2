// Package db applies the run sink schema with goose.
//
// Migration files live in internal/db/migrations/ and are embedded via //go:embed.
// RunMigrations applies all pending migrations before the first run is saved.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wdtree/internal/db/migrations"
	"github.com/persistorai/wdtree/internal/dbpool"
)

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger) error {
	return RunMigrations(ctx, pool, log, migrations.FS)
}

// RunMigrations applies all pending migrations from the provided filesystem.
// The fsys should contain goose-annotated SQL files (e.g. "001_runs.sql").
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) error {
	// goose requires a *sql.DB; open one on the same connection string
	// through the pgx stdlib driver.
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.Debug("all migrations already applied")
	}

	return nil
}

// AppliedVersion returns the schema version recorded in the database.
func AppliedVersion(ctx context.Context, pool *dbpool.Pool) (int64, error) {
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return 0, fmt.Errorf("opening sql.DB for migrations: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("creating goose provider: %w", err)
	}

	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	return v, nil
}
