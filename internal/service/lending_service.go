package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
	"libraryapi/pkg/metrics"
)

type LendingService struct {
	borrows domain.BorrowRepository
	books   domain.BookRepository
	users   domain.UserRepository
	audit   domain.AuditLogService
	policy  domain.FinePolicy
	tx      *database.Transactor
	logger  logger.Logger
	now     func() time.Time
}

func NewLendingService(
	borrows domain.BorrowRepository,
	books domain.BookRepository,
	users domain.UserRepository,
	audit domain.AuditLogService,
	policy domain.FinePolicy,
	tx *database.Transactor,
	logger logger.Logger,
) domain.LendingService {
	return &LendingService{
		borrows: borrows,
		books:   books,
		users:   users,
		audit:   audit,
		policy:  policy,
		tx:      tx,
		logger:  logger,
		now:     time.Now,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}

func (s *LendingService) Borrow(ctx context.Context, bookID, callerID int64) (*domain.BorrowResult, error) {
	borrow := &domain.Borrow{
		UserID:     callerID,
		BookID:     bookID,
		BorrowDate: s.now().UTC(),
	}

	err := s.tx.WithinTx(ctx, "borrow", func(q database.Querier) error {
		book, err := s.books.FindByID(ctx, q, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return domain.ErrBookNotFound
		}

		user, err := s.users.FindByID(ctx, q, callerID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		outstanding, err := s.borrows.FindOutstandingByBook(ctx, q, bookID)
		if err != nil {
			return err
		}
		if outstanding != nil {
			return domain.ErrBookAlreadyBorrowed
		}

		if err := s.borrows.Create(ctx, q, borrow); err != nil {
			return err
		}

		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBorrow,
			EntityID:   borrow.ID,
			Action:     domain.ActionTypeBorrow,
			ActorID:    &callerID,
			Details:    fmt.Sprintf("book_id=%d", bookID),
		})
	})
	metrics.RecordLending("borrow", outcome(err))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Book borrowed", map[string]interface{}{
		"borrow_id": borrow.ID,
		"book_id":   bookID,
		"user_id":   callerID,
	})

	return &domain.BorrowResult{
		ID:         borrow.ID,
		BookID:     borrow.BookID,
		UserID:     borrow.UserID,
		BorrowDate: borrow.BorrowDate,
	}, nil
}

// Return closes the caller's outstanding borrow of the book. The stored
// fine is only overwritten when the book came back late; the result always
// carries the fine computed for this return.
func (s *LendingService) Return(ctx context.Context, bookID, callerID int64) (*domain.ReturnResult, error) {
	now := s.now().UTC()
	var (
		overdueDays int
		fine        float64
	)

	err := s.tx.WithinTx(ctx, "return", func(q database.Querier) error {
		book, err := s.books.FindByID(ctx, q, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return domain.ErrBookNotFound
		}

		borrow, err := s.borrows.FindOutstandingByBookAndUser(ctx, q, bookID, callerID)
		if err != nil {
			return err
		}
		if borrow == nil {
			return domain.ErrBookNotBorrowed
		}

		overdueDays, fine = s.policy.Assess(borrow.BorrowDate, now)
		borrow.ReturnDate = &now
		if overdueDays > 0 {
			borrow.OverdueFine = fine
		}

		if err := s.borrows.Update(ctx, q, borrow); err != nil {
			return err
		}

		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBorrow,
			EntityID:   borrow.ID,
			Action:     domain.ActionTypeReturn,
			ActorID:    &callerID,
			Details:    fmt.Sprintf("book_id=%d overdue_days=%d overdue_fine=%.2f", bookID, overdueDays, fine),
		})
	})
	metrics.RecordLending("return", outcome(err))
	if err != nil {
		return nil, err
	}

	metrics.RecordFineAssessed(fine)
	s.logger.InfoContext(ctx, "Book returned", map[string]interface{}{
		"book_id":      bookID,
		"user_id":      callerID,
		"overdue_days": overdueDays,
		"overdue_fine": fine,
	})

	return &domain.ReturnResult{
		BookID:      bookID,
		ReturnDate:  now,
		OverdueFine: fine,
	}, nil
}

// PayFine settles the fine on the caller's borrow of the book. The borrow
// does not have to be returned first.
func (s *LendingService) PayFine(ctx context.Context, bookID, callerID int64) (*domain.PaymentResult, error) {
	var paid float64

	err := s.tx.WithinTx(ctx, "pay_fine", func(q database.Querier) error {
		borrow, err := s.borrows.FindPayableByBookAndUser(ctx, q, bookID, callerID)
		if err != nil {
			return err
		}
		if borrow == nil {
			return domain.ErrBorrowNotFound
		}
		if borrow.OverdueFine <= 0 {
			return domain.ErrNoOutstandingFine
		}

		paid = borrow.OverdueFine
		borrow.OverdueFine = 0
		if err := s.borrows.Update(ctx, q, borrow); err != nil {
			return err
		}

		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBorrow,
			EntityID:   borrow.ID,
			Action:     domain.ActionTypePayFine,
			ActorID:    &callerID,
			Details:    fmt.Sprintf("book_id=%d paid_amount=%.2f", bookID, paid),
		})
	})
	metrics.RecordLending("pay_fine", outcome(err))
	if err != nil {
		return nil, err
	}

	metrics.RecordFinePaid(paid)
	s.logger.InfoContext(ctx, "Fine paid", map[string]interface{}{
		"book_id":     bookID,
		"user_id":     callerID,
		"paid_amount": paid,
	})

	return &domain.PaymentResult{BookID: bookID, PaidAmount: paid}, nil
}

func (s *LendingService) ListOutstandingFines(ctx context.Context, userID int64) (*domain.FineSummary, error) {
	fines, err := s.borrows.ListFinesByUser(ctx, s.tx.DB(), userID)
	if err != nil {
		return nil, err
	}

	summary := &domain.FineSummary{Fines: fines}
	for _, f := range fines {
		summary.TotalOutstandingFines += f.FineAmount
	}
	return summary, nil
}

func (s *LendingService) ListBorrowedBooks(ctx context.Context, userID int64) ([]domain.BorrowedBook, error) {
	return s.borrows.ListBorrowedByUser(ctx, s.tx.DB(), userID)
}
