// Package migrations holds the per-dialect SQL schema for the workflow
// table and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// FS contains one directory of migrations per dialect.
//
//go:embed sqlite3 postgres mysql
var FS embed.FS

// Dialects lists the directory names available in FS.
var Dialects = []string{"sqlite3", "postgres", "mysql"}

// Source returns the migration files for a dialect.
func Source(dialect string) (fs.FS, error) {
	sub, err := fs.Sub(FS, dialect)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}
	if _, err := fs.ReadDir(sub, "."); err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}
	return sub, nil
}

// Up applies every pending migration for dialect to db.
// Up takes ownership of db and closes it before returning.
func Up(db *sql.DB, dialect string) error {
	sub, err := Source(dialect)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := driverFor(db, dialect)
	if err != nil {
		_ = db.Close()
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func driverFor(db *sql.DB, dialect string) (database.Driver, error) {
	switch dialect {
	case "sqlite3":
		return sqlite3.WithInstance(db, &sqlite3.Config{})
	case "postgres":
		return postgres.WithInstance(db, &postgres.Config{})
	case "mysql":
		return mysql.WithInstance(db, &mysql.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
