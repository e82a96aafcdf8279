package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"libraryapi/internal/config"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

// Dialect holds the column types that differ between SQLite and Postgres.
type Dialect struct {
	Name      string
	IDColumn  string
	Timestamp string
}

func DialectFor(driver string) Dialect {
	if driver == config.DriverPostgres {
		return Dialect{
			Name:      config.DriverPostgres,
			IDColumn:  "SERIAL PRIMARY KEY",
			Timestamp: "TIMESTAMPTZ",
		}
	}
	return Dialect{
		Name:      config.DriverSQLite,
		IDColumn:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		Timestamp: "TIMESTAMP",
	}
}

// expand fills the {{id}} and {{ts}} placeholders of a DDL statement.
func (d Dialect) expand(stmt string) string {
	return strings.NewReplacer("{{id}}", d.IDColumn, "{{ts}}", d.Timestamp).Replace(stmt)
}

type Migration struct {
	Name       string
	Statements []string
}

type MigrationService struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

func NewMigrationService(db *sql.DB, dialect Dialect, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

// Migrations lists the schema in application order. Entries are never
// edited once released; add a new one instead.
func Migrations() []Migration {
	return []Migration{
		{
			Name: "create_users_table",
			Statements: []string{`
				CREATE TABLE IF NOT EXISTS users (
					id {{id}},
					username TEXT NOT NULL UNIQUE,
					email TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at {{ts}} NOT NULL
				)`,
			},
		},
		{
			Name: "create_books_table",
			Statements: []string{`
				CREATE TABLE IF NOT EXISTS books (
					id {{id}},
					title TEXT NOT NULL,
					author TEXT NOT NULL,
					published_date TEXT,
					isbn VARCHAR(13) UNIQUE,
					pages INTEGER,
					cover TEXT,
					language TEXT NOT NULL
				)`,
			},
		},
		{
			Name: "create_borrows_table",
			Statements: []string{`
				CREATE TABLE IF NOT EXISTS borrows (
					id {{id}},
					user_id INTEGER REFERENCES users (id) ON DELETE SET NULL,
					book_id INTEGER REFERENCES books (id) ON DELETE SET NULL,
					borrow_date {{ts}} NOT NULL,
					return_date {{ts}},
					overdue_fine DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (overdue_fine >= 0)
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS borrows_one_outstanding_per_book
					ON borrows (book_id) WHERE return_date IS NULL`,
				`CREATE INDEX IF NOT EXISTS borrows_user_id_idx ON borrows (user_id)`,
			},
		},
		{
			Name: "create_audit_logs_table",
			Statements: []string{`
				CREATE TABLE IF NOT EXISTS audit_logs (
					id {{id}},
					entity_type TEXT NOT NULL,
					entity_id INTEGER NOT NULL,
					action TEXT NOT NULL,
					actor_id INTEGER,
					details TEXT NOT NULL DEFAULT '',
					created_at {{ts}} NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS audit_logs_entity_idx ON audit_logs (entity_type, entity_id)`,
			},
		},
	}
}

func (m *MigrationService) InitMigrationTable(ctx context.Context) error {
	query := m.dialect.expand(`
		CREATE TABLE IF NOT EXISTS migrations (
			id {{id}},
			name TEXT NOT NULL UNIQUE,
			applied_at {{ts}} NOT NULL
		)`)

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		m.logger.Error("Migration table could not be created", map[string]interface{}{"error": err.Error()})
		return err
	}

	return nil
}

func (m *MigrationService) IsMigrationApplied(ctx context.Context, q database.Querier, name string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE name = $1", name).Scan(&count)
	if err != nil {
		m.logger.Error("Migration state could not be read", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

// ApplyMigration runs the statements of mig and records it in one
// transaction, so a failed migration leaves no trace.
func (m *MigrationService) ApplyMigration(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		m.logger.Error("Transaction could not be started", map[string]interface{}{"error": err.Error()})
		return err
	}
	defer tx.Rollback()

	applied, err := m.IsMigrationApplied(ctx, tx, mig.Name)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug("Migration already applied", map[string]interface{}{"name": mig.Name})
		return nil
	}

	m.logger.Info("Applying migration", map[string]interface{}{"name": mig.Name})

	for _, stmt := range mig.Statements {
		if _, err := tx.ExecContext(ctx, m.dialect.expand(stmt)); err != nil {
			m.logger.Error("Migration failed", map[string]interface{}{"name": mig.Name, "error": err.Error()})
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO migrations (name, applied_at) VALUES ($1, $2)",
		mig.Name, time.Now().UTC(),
	); err != nil {
		m.logger.Error("Migration could not be recorded", map[string]interface{}{"name": mig.Name, "error": err.Error()})
		return err
	}

	if err := tx.Commit(); err != nil {
		m.logger.Error("Transaction could not be committed", map[string]interface{}{"error": err.Error()})
		return err
	}

	m.logger.Info("Migration applied", map[string]interface{}{"name": mig.Name})
	return nil
}

func (m *MigrationService) RunMigrations(ctx context.Context) error {
	m.logger.Info("Running migrations", map[string]interface{}{"dialect": m.dialect.Name})

	if err := m.InitMigrationTable(ctx); err != nil {
		return fmt.Errorf("migration table could not be created: %w", err)
	}

	for _, mig := range Migrations() {
		if err := m.ApplyMigration(ctx, mig); err != nil {
			return fmt.Errorf("migration %s failed: %w", mig.Name, err)
		}
	}

	return nil
}
