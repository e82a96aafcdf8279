package service

import (
	"context"
	"fmt"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

type BookService struct {
	repo   domain.BookRepository
	audit  domain.AuditLogService
	tx     *database.Transactor
	logger logger.Logger
}

func NewBookService(
	repo domain.BookRepository,
	audit domain.AuditLogService,
	tx *database.Transactor,
	logger logger.Logger,
) domain.BookService {
	return &BookService{
		repo:   repo,
		audit:  audit,
		tx:     tx,
		logger: logger,
	}
}

func (s *BookService) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if err := book.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, "create_book", func(q database.Querier) error {
		if err := s.repo.Create(ctx, q, book); err != nil {
			return err
		}
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBook,
			EntityID:   book.ID,
			Action:     domain.ActionTypeCreate,
			Details:    fmt.Sprintf("title=%q", book.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Book created", map[string]interface{}{"book_id": book.ID})
	return book, nil
}

func (s *BookService) GetBooks(ctx context.Context, page domain.Page) ([]*domain.Book, error) {
	return s.repo.FindAll(ctx, s.tx.DB(), page)
}

func (s *BookService) GetBookByID(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.repo.FindByID(ctx, s.tx.DB(), id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (s *BookService) UpdateBook(ctx context.Context, id int64, patch domain.BookPatch) (*domain.Book, error) {
	var book *domain.Book

	err := s.tx.WithinTx(ctx, "update_book", func(q database.Querier) error {
		existing, err := s.repo.FindByID(ctx, q, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrBookNotFound
		}

		patch.Apply(existing)
		if err := existing.Validate(); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, q, existing); err != nil {
			return err
		}

		book = existing
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBook,
			EntityID:   id,
			Action:     domain.ActionTypeUpdate,
		})
	})
	if err != nil {
		return nil, err
	}

	return book, nil
}

// DeleteBook removes the book even while it is borrowed. Its borrows are
// kept with a null book reference.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, "delete_book", func(q database.Querier) error {
		if err := s.repo.Delete(ctx, q, id); err != nil {
			return err
		}
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeBook,
			EntityID:   id,
			Action:     domain.ActionTypeDelete,
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Book deleted", map[string]interface{}{"book_id": id})
	return nil
}
