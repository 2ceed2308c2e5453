package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	// Register the database/sql drivers for every dialect.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chazuruo/tabflow/internal/config"
	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/logging"
	"github.com/chazuruo/tabflow/internal/migrations"
)

// Open returns the store selected by cfg.Backend.
// SQL backends are migrated before the store is returned.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	logger = logging.OrDiscard(logger)

	switch cfg.Backend {
	case "", fileBackend:
		path := config.ExpandHome(cfg.Path)
		logger.Debug("using file store", "path", path)
		return NewFileStore(path)
	case string(SQLite):
		path := config.ExpandHome(cfg.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		logger.Debug("using sqlite store", "path", path)
		return OpenSQL(ctx, SQLite, path)
	case string(Postgres), string(MySQL):
		logger.Debug("using sql store", "backend", cfg.Backend)
		return OpenSQL(ctx, Dialect(cfg.Backend), cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenSQL connects to dsn, applies the embedded migrations and returns a SQLStore.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn cannot be empty", dialect)
	}
	dsn = normalizeDSN(dialect, dsn)

	// Migrations run on their own handle; migrate closes it when done.
	migrationDB, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, storageOpenErr(dialect, err)
	}
	if err := migrations.Up(migrationDB, dialect.MigrationDir()); err != nil {
		return nil, storageOpenErr(dialect, err)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, storageOpenErr(dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storageOpenErr(dialect, err)
	}
	if dialect == SQLite {
		// A single writer avoids "database is locked" between pooled connections.
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db, dialect)
}

// normalizeDSN strips URL schemes the drivers do not accept.
func normalizeDSN(dialect Dialect, dsn string) string {
	switch dialect {
	case MySQL:
		return strings.TrimPrefix(dsn, "mysql://")
	case SQLite:
		return strings.TrimPrefix(dsn, "sqlite3://")
	}
	return dsn
}

func storageOpenErr(dialect Dialect, err error) error {
	return &tferrors.StorageError{Backend: string(dialect), Op: "open", Err: err}
}
