package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

const bookColumns = `id, title, author, published_date, isbn, pages, cover, language`

type BookRepository struct {
	logger logger.Logger
}

func NewBookRepository(logger logger.Logger) domain.BookRepository {
	return &BookRepository{
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var book domain.Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.PublishedDate,
		&book.ISBN,
		&book.Pages,
		&book.Cover,
		&book.Language,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *BookRepository) FindByID(ctx context.Context, q database.Querier, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Book lookup failed", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("find book: %w", err)
	}

	return book, nil
}

func (r *BookRepository) FindAll(ctx context.Context, q database.Querier, page domain.Page) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id`
	args := []any{}
	if page.Limit() > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, page.Limit(), page.Offset())
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Book listing failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]*domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Book row could not be read", map[string]interface{}{"error": err.Error()})
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, q database.Querier, book *domain.Book) error {
	query := `
		INSERT INTO books (title, author, published_date, isbn, pages, cover, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		book.Title,
		book.Author,
		book.PublishedDate,
		book.ISBN,
		book.Pages,
		book.Cover,
		book.Language,
	).Scan(&book.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateISBN
		}
		r.logger.ErrorContext(ctx, "Book could not be created", map[string]interface{}{"title": book.Title, "error": err.Error()})
		return fmt.Errorf("create book: %w", err)
	}

	return nil
}

func (r *BookRepository) Update(ctx context.Context, q database.Querier, book *domain.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, published_date = $3, isbn = $4, pages = $5, cover = $6, language = $7
		WHERE id = $8
	`

	res, err := q.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.PublishedDate,
		book.ISBN,
		book.Pages,
		book.Cover,
		book.Language,
		book.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateISBN
		}
		r.logger.ErrorContext(ctx, "Book could not be updated", map[string]interface{}{"id": book.ID, "error": err.Error()})
		return fmt.Errorf("update book: %w", err)
	}

	ok, err := affectedOne(res.RowsAffected())
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if !ok {
		return domain.ErrBookNotFound
	}

	return nil
}

func (r *BookRepository) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Book could not be deleted", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("delete book: %w", err)
	}

	ok, err := affectedOne(res.RowsAffected())
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if !ok {
		return domain.ErrBookNotFound
	}

	return nil
}
