package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

const auditLogColumns = `id, entity_type, entity_id, action, actor_id, details, created_at`

type AuditLogRepository struct {
	logger logger.Logger
}

func NewAuditLogRepository(logger logger.Logger) domain.AuditLogRepository {
	return &AuditLogRepository{
		logger: logger,
	}
}

func (r *AuditLogRepository) Create(ctx context.Context, q database.Querier, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (entity_type, entity_id, action, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	err := q.QueryRowContext(ctx, query,
		string(log.EntityType),
		log.EntityID,
		string(log.Action),
		log.ActorID,
		log.Details,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		r.logger.ErrorContext(ctx, "Audit log could not be created", map[string]interface{}{
			"entity_type": log.EntityType,
			"action":      log.Action,
			"error":       err.Error(),
		})
		return fmt.Errorf("create audit log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) FindByEntityID(ctx context.Context, q database.Querier, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := q.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Audit logs could not be read", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("find audit logs: %w", err)
	}

	return r.scanLogs(ctx, rows)
}

func (r *AuditLogRepository) FindAll(ctx context.Context, q database.Querier, limit, offset int) ([]*domain.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Audit logs could not be read", map[string]interface{}{
			"limit":  limit,
			"offset": offset,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	return r.scanLogs(ctx, rows)
}

func (r *AuditLogRepository) scanLogs(ctx context.Context, rows *sql.Rows) ([]*domain.AuditLog, error) {
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var log domain.AuditLog
		var entityTypeStr, actionStr string

		err := rows.Scan(
			&log.ID,
			&entityTypeStr,
			&log.EntityID,
			&actionStr,
			&log.ActorID,
			&log.Details,
			&log.CreatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Audit log row could not be read", map[string]interface{}{"error": err.Error()})
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		log.EntityType = domain.EntityType(entityTypeStr)
		log.Action = domain.ActionType(actionStr)

		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Audit log rows could not be iterated", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("scan audit logs: %w", err)
	}

	return logs, nil
}
