package service

import (
	"context"
	"fmt"
	"time"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

const defaultAuditPageSize = 10

type AuditLogService struct {
	repo   domain.AuditLogRepository
	tx     *database.Transactor
	logger logger.Logger
}

func NewAuditLogService(repo domain.AuditLogRepository, tx *database.Transactor, logger logger.Logger) domain.AuditLogService {
	return &AuditLogService{
		repo:   repo,
		tx:     tx,
		logger: logger,
	}
}

func (s *AuditLogService) LogAction(ctx context.Context, q database.Querier, entry domain.AuditLog) error {
	if entry.ActorID == nil {
		entry.ActorID = domain.ActorFromContext(ctx)
	}
	entry.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, q, &entry); err != nil {
		s.logger.ErrorContext(ctx, "Audit log could not be written", map[string]interface{}{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
			"action":      entry.Action,
			"error":       err.Error(),
		})
		return fmt.Errorf("audit %s %s: %w", entry.EntityType, entry.Action, err)
	}

	return nil
}

func (s *AuditLogService) GetEntityLogs(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	logs, err := s.repo.FindByEntityID(ctx, s.tx.DB(), entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("entity audit logs: %w", err)
	}

	return logs, nil
}

func (s *AuditLogService) GetAllLogs(ctx context.Context, page, pageSize int) ([]*domain.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultAuditPageSize
	}

	logs, err := s.repo.FindAll(ctx, s.tx.DB(), pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Audit logs could not be listed", map[string]interface{}{
			"page":      page,
			"page_size": pageSize,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("audit logs: %w", err)
	}

	return logs, nil
}
