package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"libraryapi/pkg/logger"
	"libraryapi/pkg/metrics"
)

// Transactor opens one transaction per unit of work.
type Transactor struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTransactor(db *sql.DB, logger logger.Logger) *Transactor {
	return &Transactor{db: db, logger: logger}
}

// DB returns the pool for read-only operations that need no transaction.
func (t *Transactor) DB() Querier {
	return t.db
}

// WithinTx runs fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back otherwise, including on panic.
func (t *Transactor) WithinTx(ctx context.Context, name string, fn func(q Querier) error) (err error) {
	start := time.Now()
	defer func() {
		status := "committed"
		if err != nil {
			status = "rolled_back"
		}
		metrics.RecordTransaction(name, status, time.Since(start))
	}()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		t.logger.ErrorContext(ctx, "Transaction could not be started", map[string]interface{}{
			"unit":  name,
			"error": err.Error(),
		})
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			t.logger.ErrorContext(ctx, "Transaction rollback failed", map[string]interface{}{
				"unit":  name,
				"error": rbErr.Error(),
			})
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		t.logger.ErrorContext(ctx, "Transaction could not be committed", map[string]interface{}{
			"unit":  name,
			"error": err.Error(),
		})
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
