package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"libraryapi/internal/config"
	"libraryapi/pkg/logger"
)

// Querier is satisfied by both *sql.DB and *sql.Tx. Repositories take one
// per call so the caller decides the transactional scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ConnectionManager struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func NewConnectionManager(cfg config.DatabaseConfig, logger logger.Logger) (*ConnectionManager, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established", map[string]interface{}{
		"driver": cfg.Driver,
	})

	return &ConnectionManager{db: db, driver: cfg.Driver, logger: logger}, nil
}

func open(cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}

		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL&_txlock=immediate", cfg.Path)
		db, err := sql.Open(config.DriverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		// A single writer connection serializes transactions; SQLite would
		// otherwise fail lock upgrades with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		return db, nil

	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

		db, err := sql.Open(config.DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func (cm *ConnectionManager) DB() *sql.DB {
	return cm.db
}

func (cm *ConnectionManager) Driver() string {
	return cm.driver
}

func (cm *ConnectionManager) Close() error {
	if err := cm.db.Close(); err != nil {
		cm.logger.Error("Database close failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (cm *ConnectionManager) GetStats() map[string]interface{} {
	stats := cm.db.Stats()
	return map[string]interface{}{
		"driver":           cm.driver,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}
