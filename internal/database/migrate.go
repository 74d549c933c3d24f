package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the latest migration shipped in migrations/
const SchemaVersion uint = 1

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrDirtySchema  = errors.New("database schema is dirty")
	ErrSchemaTooNew = errors.New("database schema is newer than this binary")
)

// Migrate brings the schema up to SchemaVersion. A dirty schema or one that
// is ahead of the binary is an error and nothing is applied.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	current, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		current = 0
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := checkVersion(current, dirty); err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if current < SchemaVersion {
		slog.Info("schema migrated", "from", current, "to", SchemaVersion)
	}
	return nil
}

func checkVersion(current uint, dirty bool) error {
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, current)
	}
	if current > SchemaVersion {
		return fmt.Errorf("%w: database at %d, binary expects %d", ErrSchemaTooNew, current, SchemaVersion)
	}
	return nil
}
