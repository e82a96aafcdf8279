// Package seed loads a small demo data set: three users, two books and one
// outstanding borrow per regular user.
package seed

import (
	"context"
	"time"

	"libraryapi/internal/domain"
	"libraryapi/pkg/auth"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

const day = 24 * time.Hour

type userSeed struct {
	username string
	email    string
	password string
	admin    bool
}

var users = []userSeed{
	{username: "admin_user", email: "admin@example.com", password: "adminpassword123", admin: true},
	{username: "john_doe", email: "john.doe@example.com", password: "password123"},
	{username: "jane_doe", email: "jane.doe@example.com", password: "password456"},
}

func books() []*domain.Book {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	return []*domain.Book{
		{
			Title:         "The Pragmatic Programmer",
			Author:        "Andy Hunt",
			PublishedDate: str("1999-10-20"),
			ISBN:          str("9780201616224"),
			Pages:         num(352),
			Cover:         str("https://example.com/pragmatic.jpg"),
			Language:      "English",
		},
		{
			Title:         "Clean Code",
			Author:        "Robert C. Martin",
			PublishedDate: str("2008-08-01"),
			ISBN:          str("9780132350884"),
			Pages:         num(464),
			Cover:         str("https://example.com/clean_code.jpg"),
			Language:      "English",
		},
	}
}

type Result struct {
	Users   int
	Books   int
	Borrows int
	Skipped bool
}

type Seeder struct {
	users   domain.UserRepository
	books   domain.BookRepository
	borrows domain.BorrowRepository
	tx      *database.Transactor
	logger  logger.Logger
	now     func() time.Time
}

func NewSeeder(
	users domain.UserRepository,
	books domain.BookRepository,
	borrows domain.BorrowRepository,
	tx *database.Transactor,
	logger logger.Logger,
) *Seeder {
	return &Seeder{
		users:   users,
		books:   books,
		borrows: borrows,
		tx:      tx,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run inserts the data set in one transaction. A database that already holds
// the admin account is left untouched.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	now := s.now()

	err := s.tx.WithinTx(ctx, "seed", func(q database.Querier) error {
		existing, err := s.users.FindByEmail(ctx, q, users[0].email)
		if err != nil {
			return err
		}
		if existing != nil {
			res.Skipped = true
			return nil
		}

		created := make([]*domain.User, 0, len(users))
		for _, u := range users {
			hash, err := auth.HashPassword(u.password)
			if err != nil {
				return err
			}
			user := &domain.User{Username: u.username, Email: u.email, PasswordHash: hash, IsAdmin: u.admin}
			if err := s.users.Create(ctx, q, user); err != nil {
				return err
			}
			created = append(created, user)
		}
		res.Users = len(created)

		catalog := books()
		for _, b := range catalog {
			if err := s.books.Create(ctx, q, b); err != nil {
				return err
			}
		}
		res.Books = len(catalog)

		loans := []*domain.Borrow{
			{UserID: created[1].ID, BookID: catalog[0].ID, BorrowDate: now.Add(-10 * day), OverdueFine: 6.0},
			{UserID: created[2].ID, BookID: catalog[1].ID, BorrowDate: now.Add(-5 * day)},
		}
		for _, b := range loans {
			if err := s.borrows.Create(ctx, q, b); err != nil {
				return err
			}
		}
		res.Borrows = len(loans)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Seeding failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	if res.Skipped {
		s.logger.Info("Database already seeded", nil)
	} else {
		s.logger.Info("Database seeded", map[string]interface{}{
			"users":   res.Users,
			"books":   res.Books,
			"borrows": res.Borrows,
		})
	}
	return res, nil
}
