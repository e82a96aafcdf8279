package domain

import (
	"context"
	"strings"
	"time"

	"libraryapi/pkg/database"
)

const (
	PublishedDateLayout = "2006-01-02"
	MaxISBNLength       = 13
)

type Book struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	PublishedDate *string `json:"published_date"`
	ISBN          *string `json:"isbn"`
	Pages         *int    `json:"pages"`
	Cover         *string `json:"cover"`
	Language      string  `json:"language"`
}

// BookPatch carries a partial update; nil fields keep their stored value.
type BookPatch struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	PublishedDate *string `json:"published_date"`
	ISBN          *string `json:"isbn"`
	Pages         *int    `json:"pages"`
	Cover         *string `json:"cover"`
	Language      *string `json:"language"`
}

// Apply copies the non-nil fields of p onto b.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.PublishedDate != nil {
		b.PublishedDate = p.PublishedDate
	}
	if p.ISBN != nil {
		b.ISBN = p.ISBN
	}
	if p.Pages != nil {
		b.Pages = p.Pages
	}
	if p.Cover != nil {
		b.Cover = p.Cover
	}
	if p.Language != nil {
		b.Language = *p.Language
	}
}

func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return NewValidationError("title is required")
	}
	if strings.TrimSpace(b.Author) == "" {
		return NewValidationError("author is required")
	}
	if strings.TrimSpace(b.Language) == "" {
		return NewValidationError("language is required")
	}
	if b.PublishedDate != nil {
		if _, err := time.Parse(PublishedDateLayout, *b.PublishedDate); err != nil {
			return NewValidationError("published_date must be formatted as YYYY-MM-DD")
		}
	}
	if b.ISBN != nil && len(*b.ISBN) > MaxISBNLength {
		return NewValidationError("isbn must be at most 13 characters")
	}
	if b.Pages != nil && *b.Pages < 0 {
		return NewValidationError("pages must not be negative")
	}
	return nil
}

// Page selects a window of a listing. A zero PerPage means no limit.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) Offset() int {
	if p.PerPage <= 0 || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

type BookRepository interface {
	FindByID(ctx context.Context, q database.Querier, id int64) (*Book, error)
	FindAll(ctx context.Context, q database.Querier, page Page) ([]*Book, error)
	Create(ctx context.Context, q database.Querier, book *Book) error
	Update(ctx context.Context, q database.Querier, book *Book) error
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type BookService interface {
	CreateBook(ctx context.Context, book *Book) (*Book, error)
	GetBooks(ctx context.Context, page Page) ([]*Book, error)
	GetBookByID(ctx context.Context, id int64) (*Book, error)
	UpdateBook(ctx context.Context, id int64, patch BookPatch) (*Book, error)
	DeleteBook(ctx context.Context, id int64) error
}
