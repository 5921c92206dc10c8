package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/crucial707/itam/internal/config"
)

// Open connects to the backend selected by cfg: PostgreSQL when DatabaseURL
// is set, otherwise the SQLite file at SQLitePath. The returned Gateway is
// meant to live until shutdown.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DatabaseURL != "" {
		return openPostgres(ctx, cfg, logger)
	}
	return OpenSQLite(ctx, cfg.SQLitePath, logger)
}

func openPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Gateway, error) {
	d := Postgres{}
	sqlDB, err := sql.Open(d.DriverName(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to database", "backend", d.Name())
	return New(sqlDB, d, logger), nil
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	d := SQLite{}
	dsn := path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_time_format=sqlite"

	sqlDB, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite has a single writer, and transactions that read
	// before writing would otherwise fail with SQLITE_BUSY under contention.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	logger.Info("connected to database", "backend", d.Name(), "path", path)
	return New(sqlDB, d, logger), nil
}
