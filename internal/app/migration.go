package app

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"BakeryStore/config"
	"BakeryStore/pkg/logger"
)

//go:embed migrations/*.sql
var MIGRATION_FS embed.FS

// ApplyMigrations brings the products, orders and order_events schema up to date.
func ApplyMigrations(ctx context.Context, connStr string, migrationFS fs.FS, l *logger.Logger) error {
	dir, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, dir)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, res := range results {
		l.Info("Migration applied: version=%d file=%s took=%s", res.Source.Version, res.Source.Path, res.Duration)
	}
	return nil
}

// Migrate applies migrations for the configured postgres backend without starting the store.
func Migrate(cfg config.Config) error {
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("migrations need STORE_BACKEND=%s, got %q", config.BackendPostgres, cfg.StoreBackend)
	}
	l := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Console: cfg.LogFormat == "console"})
	return ApplyMigrations(context.Background(), cfg.PgURL, MIGRATION_FS, l)
}
