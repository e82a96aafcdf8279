package service

import (
	"context"
	"fmt"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

// AdminService backs the admin routes. Callers are expected to have
// passed the admin guard already.
type AdminService struct {
	users   domain.UserRepository
	borrows domain.BorrowRepository
	audit   domain.AuditLogService
	tx      *database.Transactor
	logger  logger.Logger
}

func NewAdminService(
	users domain.UserRepository,
	borrows domain.BorrowRepository,
	audit domain.AuditLogService,
	tx *database.Transactor,
	logger logger.Logger,
) domain.AdminService {
	return &AdminService{
		users:   users,
		borrows: borrows,
		audit:   audit,
		tx:      tx,
		logger:  logger,
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.FindAll(ctx, s.tx.DB())
}

func (s *AdminService) ListBorrowRecords(ctx context.Context) ([]domain.BorrowRecord, error) {
	return s.borrows.ListRecords(ctx, s.tx.DB())
}

func (s *AdminService) DeleteBorrowRecord(ctx context.Context, adminID, borrowID int64) error {
	err := s.tx.WithinTx(ctx, "delete_borrow", func(q database.Querier) error {
		borrow, err := s.borrows.FindByID(ctx, q, borrowID)
		if err != nil {
			return err
		}
		if borrow == nil {
			return domain.ErrBorrowNotFound
		}

		if err := s.borrows.Delete(ctx, q, borrowID); err != nil {
			return err
		}

		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBorrow,
			EntityID:   borrowID,
			Action:     domain.ActionTypeDelete,
			ActorID:    &adminID,
			Details: fmt.Sprintf("book_id=%d user_id=%d overdue_fine=%.2f",
				borrow.BookID, borrow.UserID, borrow.OverdueFine),
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Borrow record deleted", map[string]interface{}{
		"borrow_id": borrowID,
		"admin_id":  adminID,
	})
	return nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, page domain.Page) ([]*domain.AuditLog, error) {
	return s.audit.GetAllLogs(ctx, page.Page, page.PerPage)
}
