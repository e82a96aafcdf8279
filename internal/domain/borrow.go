package domain

import (
	"context"
	"time"

	"libraryapi/pkg/database"
)

// Borrow links a user and a book for a lending period. A nil ReturnDate
// means the book is still out. UserID or BookID is 0 once the referenced
// row has been deleted.
type Borrow struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	BookID      int64      `json:"book_id"`
	BorrowDate  time.Time  `json:"borrow_date"`
	ReturnDate  *time.Time `json:"return_date"`
	OverdueFine float64    `json:"overdue_fine"`
}

func (b *Borrow) Outstanding() bool {
	return b.ReturnDate == nil
}

type BorrowResult struct {
	ID         int64     `json:"borrow_id"`
	BookID     int64     `json:"book_id"`
	UserID     int64     `json:"user_id"`
	BorrowDate time.Time `json:"borrow_date"`
}

type ReturnResult struct {
	BookID      int64     `json:"book_id"`
	ReturnDate  time.Time `json:"return_date"`
	OverdueFine float64   `json:"overdue_fine"`
}

type PaymentResult struct {
	BookID     int64   `json:"book_id"`
	PaidAmount float64 `json:"paid_amount"`
}

type BorrowedBook struct {
	BorrowID   int64     `json:"borrow_id"`
	BookID     int64     `json:"book_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	BorrowDate time.Time `json:"borrow_date"`
}

type OutstandingFine struct {
	BorrowID   int64      `json:"borrow_id"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	FineAmount float64    `json:"fine_amount"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date"`
}

type FineSummary struct {
	TotalOutstandingFines float64           `json:"total_outstanding_fines"`
	Fines                 []OutstandingFine `json:"fines"`
}

// BorrowRecord is the admin view of a borrow joined with its user and book.
type BorrowRecord struct {
	BorrowID    int64      `json:"borrow_id"`
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username"`
	BookID      int64      `json:"book_id"`
	BookTitle   string     `json:"book_title"`
	BorrowDate  time.Time  `json:"borrow_date"`
	ReturnDate  *time.Time `json:"return_date"`
	OverdueFine float64    `json:"overdue_fine"`
}

type BorrowRepository interface {
	FindByID(ctx context.Context, q database.Querier, id int64) (*Borrow, error)
	FindOutstandingByBook(ctx context.Context, q database.Querier, bookID int64) (*Borrow, error)
	FindOutstandingByBookAndUser(ctx context.Context, q database.Querier, bookID, userID int64) (*Borrow, error)
	FindPayableByBookAndUser(ctx context.Context, q database.Querier, bookID, userID int64) (*Borrow, error)
	ListBorrowedByUser(ctx context.Context, q database.Querier, userID int64) ([]BorrowedBook, error)
	ListFinesByUser(ctx context.Context, q database.Querier, userID int64) ([]OutstandingFine, error)
	ListRecords(ctx context.Context, q database.Querier) ([]BorrowRecord, error)
	Create(ctx context.Context, q database.Querier, borrow *Borrow) error
	Update(ctx context.Context, q database.Querier, borrow *Borrow) error
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type LendingService interface {
	Borrow(ctx context.Context, bookID, callerID int64) (*BorrowResult, error)
	Return(ctx context.Context, bookID, callerID int64) (*ReturnResult, error)
	PayFine(ctx context.Context, bookID, callerID int64) (*PaymentResult, error)
	ListOutstandingFines(ctx context.Context, userID int64) (*FineSummary, error)
	ListBorrowedBooks(ctx context.Context, userID int64) ([]BorrowedBook, error)
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]*User, error)
	ListBorrowRecords(ctx context.Context) ([]BorrowRecord, error)
	DeleteBorrowRecord(ctx context.Context, adminID, borrowID int64) error
	ListAuditLogs(ctx context.Context, page Page) ([]*AuditLog, error)
}
