// Package migrations applies the embedded schema with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// Runner handles database migrations for one schema.
type Runner struct {
	db       *sql.DB
	schema   string
	logger   *slog.Logger
	migrator *migrate.Migrate
}

// NewRunner creates a migration runner. Initialize is called lazily.
func NewRunner(db *sql.DB, schema string, logger *slog.Logger) *Runner {
	return &Runner{db: db, schema: schema, logger: logger}
}

// Initialize prepares the migrator over the embedded SQL files.
func (r *Runner) Initialize() error {
	if r.schema != "" {
		if _, err := r.db.Exec(`CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(r.schema)); err != nil {
			return fmt.Errorf("create schema %s: %w", r.schema, err)
		}
	}
	driver, err := postgres.WithInstance(r.db, &postgres.Config{SchemaName: r.schema})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}
	source, err := iofs.New(schemaFS, "sql")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	r.migrator = migrator
	return nil
}

// Up applies all pending migrations.
func (r *Runner) Up() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}
	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	r.logVersion()
	return nil
}

// Reset drops every table and re-applies the schema from scratch.
func (r *Runner) Reset() error {
	if r.migrator == nil {
		if err := r.Initialize(); err != nil {
			return err
		}
	}
	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	r.logger.Warn("database reset", "schema", r.schema)
	return r.Up()
}

func (r *Runner) logVersion() {
	version, dirty, err := r.migrator.Version()
	if err != nil {
		if !errors.Is(err, migrate.ErrNilVersion) {
			r.logger.Error("read schema version", "error", err)
		}
		return
	}
	r.logger.Info("schema version", "version", version, "dirty", dirty)
}
