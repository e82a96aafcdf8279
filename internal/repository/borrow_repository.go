package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

const borrowColumns = `id, user_id, book_id, borrow_date, return_date, overdue_fine`

type BorrowRepository struct {
	logger logger.Logger
}

func NewBorrowRepository(logger logger.Logger) domain.BorrowRepository {
	return &BorrowRepository{
		logger: logger,
	}
}

func scanBorrow(row rowScanner) (*domain.Borrow, error) {
	var (
		borrow     domain.Borrow
		userID     sql.NullInt64
		bookID     sql.NullInt64
		returnDate sql.NullTime
	)

	err := row.Scan(
		&borrow.ID,
		&userID,
		&bookID,
		&borrow.BorrowDate,
		&returnDate,
		&borrow.OverdueFine,
	)
	if err != nil {
		return nil, err
	}

	borrow.UserID = userID.Int64
	borrow.BookID = bookID.Int64
	borrow.BorrowDate = borrow.BorrowDate.UTC()
	borrow.ReturnDate = nullTime(returnDate)

	return &borrow, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func (r *BorrowRepository) findOne(ctx context.Context, q database.Querier, query string, args ...any) (*domain.Borrow, error) {
	borrow, err := scanBorrow(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Borrow lookup failed", map[string]interface{}{"args": args, "error": err.Error()})
		return nil, fmt.Errorf("find borrow: %w", err)
	}

	return borrow, nil
}

func (r *BorrowRepository) FindByID(ctx context.Context, q database.Querier, id int64) (*domain.Borrow, error) {
	return r.findOne(ctx, q, `SELECT `+borrowColumns+` FROM borrows WHERE id = $1`, id)
}

func (r *BorrowRepository) FindOutstandingByBook(ctx context.Context, q database.Querier, bookID int64) (*domain.Borrow, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrows WHERE book_id = $1 AND return_date IS NULL`
	return r.findOne(ctx, q, query, bookID)
}

func (r *BorrowRepository) FindOutstandingByBookAndUser(ctx context.Context, q database.Querier, bookID, userID int64) (*domain.Borrow, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrows
		WHERE book_id = $1 AND user_id = $2 AND return_date IS NULL
	`
	return r.findOne(ctx, q, query, bookID, userID)
}

// FindPayableByBookAndUser returns the most recent borrow of the book by
// the user that still carries a fine, or the most recent borrow when none
// does.
func (r *BorrowRepository) FindPayableByBookAndUser(ctx context.Context, q database.Querier, bookID, userID int64) (*domain.Borrow, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrows
		WHERE book_id = $1 AND user_id = $2
		ORDER BY (overdue_fine > 0) DESC, borrow_date DESC, id DESC
		LIMIT 1
	`
	return r.findOne(ctx, q, query, bookID, userID)
}

func (r *BorrowRepository) ListBorrowedByUser(ctx context.Context, q database.Querier, userID int64) ([]domain.BorrowedBook, error) {
	query := `
		SELECT br.id, br.book_id, bk.title, bk.author, br.borrow_date
		FROM borrows br
		LEFT JOIN books bk ON bk.id = br.book_id
		WHERE br.user_id = $1 AND br.return_date IS NULL
		ORDER BY br.borrow_date, br.id
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Borrowed books could not be listed", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return nil, fmt.Errorf("list borrowed books: %w", err)
	}
	defer rows.Close()

	books := make([]domain.BorrowedBook, 0)
	for rows.Next() {
		var (
			item          domain.BorrowedBook
			bookID        sql.NullInt64
			title, author sql.NullString
		)
		if err := rows.Scan(&item.BorrowID, &bookID, &title, &author, &item.BorrowDate); err != nil {
			return nil, fmt.Errorf("scan borrowed book: %w", err)
		}
		item.BookID = bookID.Int64
		item.Title = title.String
		item.Author = author.String
		item.BorrowDate = item.BorrowDate.UTC()
		books = append(books, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list borrowed books: %w", err)
	}

	return books, nil
}

func (r *BorrowRepository) ListFinesByUser(ctx context.Context, q database.Querier, userID int64) ([]domain.OutstandingFine, error) {
	query := `
		SELECT br.id, br.book_id, bk.title, br.overdue_fine, br.borrow_date, br.return_date
		FROM borrows br
		LEFT JOIN books bk ON bk.id = br.book_id
		WHERE br.user_id = $1 AND br.overdue_fine > 0
		ORDER BY br.borrow_date, br.id
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Fines could not be listed", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return nil, fmt.Errorf("list fines: %w", err)
	}
	defer rows.Close()

	fines := make([]domain.OutstandingFine, 0)
	for rows.Next() {
		var (
			fine       domain.OutstandingFine
			bookID     sql.NullInt64
			title      sql.NullString
			returnDate sql.NullTime
		)
		if err := rows.Scan(&fine.BorrowID, &bookID, &title, &fine.FineAmount, &fine.BorrowDate, &returnDate); err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		fine.BookID = bookID.Int64
		fine.BookTitle = title.String
		fine.BorrowDate = fine.BorrowDate.UTC()
		fine.ReturnDate = nullTime(returnDate)
		fines = append(fines, fine)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}

	return fines, nil
}

func (r *BorrowRepository) ListRecords(ctx context.Context, q database.Querier) ([]domain.BorrowRecord, error) {
	query := `
		SELECT br.id, br.user_id, u.username, br.book_id, bk.title, br.borrow_date, br.return_date, br.overdue_fine
		FROM borrows br
		LEFT JOIN users u ON u.id = br.user_id
		LEFT JOIN books bk ON bk.id = br.book_id
		ORDER BY br.borrow_date DESC, br.id DESC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Borrow records could not be listed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.BorrowRecord, 0)
	for rows.Next() {
		var (
			rec             domain.BorrowRecord
			userID, bookID  sql.NullInt64
			username, title sql.NullString
			returnDate      sql.NullTime
		)
		err := rows.Scan(
			&rec.BorrowID,
			&userID,
			&username,
			&bookID,
			&title,
			&rec.BorrowDate,
			&returnDate,
			&rec.OverdueFine,
		)
		if err != nil {
			return nil, fmt.Errorf("scan borrow record: %w", err)
		}
		rec.UserID = userID.Int64
		rec.Username = username.String
		rec.BookID = bookID.Int64
		rec.BookTitle = title.String
		rec.BorrowDate = rec.BorrowDate.UTC()
		rec.ReturnDate = nullTime(returnDate)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}

	return records, nil
}

// Create inserts an outstanding borrow. The partial unique index on
// book_id turns a concurrent second borrow into ErrBookAlreadyBorrowed.
func (r *BorrowRepository) Create(ctx context.Context, q database.Querier, borrow *domain.Borrow) error {
	query := `
		INSERT INTO borrows (user_id, book_id, borrow_date, return_date, overdue_fine)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		borrow.UserID,
		borrow.BookID,
		borrow.BorrowDate.UTC(),
		borrow.ReturnDate,
		borrow.OverdueFine,
	).Scan(&borrow.ID)

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrBookAlreadyBorrowed
		case isForeignKeyViolation(err):
			return domain.ErrBookNotFound
		}
		r.logger.ErrorContext(ctx, "Borrow could not be created", map[string]interface{}{
			"book_id": borrow.BookID,
			"user_id": borrow.UserID,
			"error":   err.Error(),
		})
		return fmt.Errorf("create borrow: %w", err)
	}

	return nil
}

func (r *BorrowRepository) Update(ctx context.Context, q database.Querier, borrow *domain.Borrow) error {
	query := `UPDATE borrows SET return_date = $1, overdue_fine = $2 WHERE id = $3`

	res, err := q.ExecContext(ctx, query, borrow.ReturnDate, borrow.OverdueFine, borrow.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Borrow could not be updated", map[string]interface{}{"id": borrow.ID, "error": err.Error()})
		return fmt.Errorf("update borrow: %w", err)
	}

	ok, err := affectedOne(res.RowsAffected())
	if err != nil {
		return fmt.Errorf("update borrow: %w", err)
	}
	if !ok {
		return domain.ErrBorrowNotFound
	}

	return nil
}

func (r *BorrowRepository) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM borrows WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Borrow could not be deleted", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("delete borrow: %w", err)
	}

	ok, err := affectedOne(res.RowsAffected())
	if err != nil {
		return fmt.Errorf("delete borrow: %w", err)
	}
	if !ok {
		return domain.ErrBorrowNotFound
	}

	return nil
}
