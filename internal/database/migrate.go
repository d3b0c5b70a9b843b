package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the migration version this build expects.
const SchemaVersion uint = 2

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrSchemaOutdated is returned by CheckSchema when migrations are pending.
var ErrSchemaOutdated = errors.New("schema outdated")

// ErrSchemaDirty is returned when a previous migration stopped halfway.
var ErrSchemaDirty = errors.New("schema dirty")

// newMigrator binds the embedded migrations to db. The returned migrator is
// never closed because closing it closes db; only the source is released.
func newMigrator(db *sql.DB) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	return m, func() { _ = src.Close() }, nil
}

// RunMigrations applies all up migrations to db.
func RunMigrations(db *sql.DB) error {
	m, release, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer release()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// CheckSchema verifies db is at SchemaVersion without changing it.
func CheckSchema(db *sql.DB) error {
	m, release, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer release()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%w: no schema applied", ErrSchemaOutdated)
	}
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrSchemaDirty, version)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: have %d, want %d", ErrSchemaOutdated, version, SchemaVersion)
	}
	return nil
}
