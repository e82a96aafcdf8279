package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/config"
	migrations "libraryapi/internal/database"
	"libraryapi/internal/domain"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "library.db"),
	}
	cm, err := database.NewConnectionManager(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	ms := migrations.NewMigrationService(cm.DB(), migrations.DialectFor(cfg.Driver), logger.Nop())
	require.NoError(t, ms.RunMigrations(context.Background()))

	return cm.DB()
}

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, db *sql.DB, name string) *domain.User {
	t.Helper()
	user := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(logger.Nop()).Create(context.Background(), db, user))
	return user
}

func createBook(t *testing.T, db *sql.DB, title string) *domain.Book {
	t.Helper()
	book := &domain.Book{Title: title, Author: "Author", Language: "English"}
	require.NoError(t, NewBookRepository(logger.Nop()).Create(context.Background(), db, book))
	return book
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	ms := migrations.NewMigrationService(db, migrations.DialectFor(config.DriverSQLite), logger.Nop())
	require.NoError(t, ms.RunMigrations(context.Background()))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&count))
	assert.Equal(t, len(migrations.Migrations()), count)
}

func TestBookRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBookRepository(logger.Nop())

	pages := 328
	book := &domain.Book{
		Title:         "1984",
		Author:        "George Orwell",
		PublishedDate: strPtr("1949-06-08"),
		ISBN:          strPtr("9780451524935"),
		Pages:         &pages,
		Language:      "English",
	}
	require.NoError(t, repo.Create(ctx, db, book))
	assert.NotZero(t, book.ID)

	found, err := repo.FindByID(ctx, db, book.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "George Orwell", found.Author)
	require.NotNil(t, found.Pages)
	assert.Equal(t, 328, *found.Pages)
	assert.Nil(t, found.Cover)

	found.Title = "Nineteen Eighty-Four"
	require.NoError(t, repo.Update(ctx, db, found))

	updated, err := repo.FindByID(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nineteen Eighty-Four", updated.Title)
	assert.Equal(t, "9780451524935", *updated.ISBN)

	require.NoError(t, repo.Delete(ctx, db, book.ID))

	missing, err := repo.FindByID(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repo.Delete(ctx, db, book.ID), domain.ErrBookNotFound)
}

func TestBookRepositoryDuplicateISBN(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBookRepository(logger.Nop())

	first := &domain.Book{Title: "A", Author: "X", ISBN: strPtr("123"), Language: "English"}
	require.NoError(t, repo.Create(ctx, db, first))

	second := &domain.Book{Title: "B", Author: "Y", ISBN: strPtr("123"), Language: "English"}
	assert.ErrorIs(t, repo.Create(ctx, db, second), domain.ErrDuplicateISBN)
}

func TestBookRepositoryPagination(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBookRepository(logger.Nop())

	for _, title := range []string{"A", "B", "C"} {
		createBook(t, db, title)
	}

	all, err := repo.FindAll(ctx, db, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	second, err := repo.FindAll(ctx, db, domain.Page{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "C", second[0].Title)
}

func TestUserRepositoryUniqueFields(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(logger.Nop())

	createUser(t, db, "john_doe")

	dupEmail := &domain.User{Username: "other", Email: "john_doe@example.com", PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, db, dupEmail), domain.ErrUserAlreadyExists)

	dupName := &domain.User{Username: "john_doe", Email: "other@example.com", PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, db, dupName), domain.ErrUserAlreadyExists)

	found, err := repo.FindByEmail(ctx, db, "john_doe@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.IsAdmin)

	found.IsAdmin = true
	require.NoError(t, repo.Update(ctx, db, found))

	byName, err := repo.FindByUsername(ctx, db, "john_doe")
	require.NoError(t, err)
	assert.True(t, byName.IsAdmin)
}

func TestBorrowRepositoryOneOutstandingPerBook(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBorrowRepository(logger.Nop())

	user := createUser(t, db, "john_doe")
	other := createUser(t, db, "jane_doe")
	book := createBook(t, db, "Dune")

	now := time.Now().UTC()
	first := &domain.Borrow{UserID: user.ID, BookID: book.ID, BorrowDate: now}
	require.NoError(t, repo.Create(ctx, db, first))

	second := &domain.Borrow{UserID: other.ID, BookID: book.ID, BorrowDate: now}
	assert.ErrorIs(t, repo.Create(ctx, db, second), domain.ErrBookAlreadyBorrowed)

	returned := now.Add(time.Hour)
	first.ReturnDate = &returned
	require.NoError(t, repo.Update(ctx, db, first))

	require.NoError(t, repo.Create(ctx, db, second))

	outstanding, err := repo.FindOutstandingByBook(ctx, db, book.ID)
	require.NoError(t, err)
	require.NotNil(t, outstanding)
	assert.Equal(t, second.ID, outstanding.ID)
	assert.Equal(t, other.ID, outstanding.UserID)
}

func TestBorrowRepositoryUnknownBook(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := createUser(t, db, "john_doe")

	borrow := &domain.Borrow{UserID: user.ID, BookID: 999, BorrowDate: time.Now().UTC()}
	assert.ErrorIs(t, NewBorrowRepository(logger.Nop()).Create(ctx, db, borrow), domain.ErrBookNotFound)
}

func TestBorrowRepositoryFindPayablePrefersFined(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBorrowRepository(logger.Nop())

	user := createUser(t, db, "john_doe")
	book := createBook(t, db, "Dune")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	returned := base.Add(20 * 24 * time.Hour)
	fined := &domain.Borrow{UserID: user.ID, BookID: book.ID, BorrowDate: base, ReturnDate: &returned, OverdueFine: 26}
	require.NoError(t, repo.Create(ctx, db, fined))

	later := base.Add(30 * 24 * time.Hour)
	latest := &domain.Borrow{UserID: user.ID, BookID: book.ID, BorrowDate: later}
	require.NoError(t, repo.Create(ctx, db, latest))

	payable, err := repo.FindPayableByBookAndUser(ctx, db, book.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, payable)
	assert.Equal(t, fined.ID, payable.ID)
	assert.Equal(t, 26.0, payable.OverdueFine)

	fined.OverdueFine = 0
	require.NoError(t, repo.Update(ctx, db, fined))

	payable, err = repo.FindPayableByBookAndUser(ctx, db, book.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, payable.ID)
}

func TestBorrowRepositoryListings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBorrowRepository(logger.Nop())

	user := createUser(t, db, "john_doe")
	dune := createBook(t, db, "Dune")
	emma := createBook(t, db, "Emma")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	returned := base.Add(17 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, db, &domain.Borrow{
		UserID: user.ID, BookID: dune.ID, BorrowDate: base, ReturnDate: &returned, OverdueFine: 20,
	}))
	require.NoError(t, repo.Create(ctx, db, &domain.Borrow{UserID: user.ID, BookID: emma.ID, BorrowDate: base}))

	borrowed, err := repo.ListBorrowedByUser(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, "Emma", borrowed[0].Title)
	assert.True(t, base.Equal(borrowed[0].BorrowDate))

	fines, err := repo.ListFinesByUser(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, fines, 1)
	assert.Equal(t, "Dune", fines[0].BookTitle)
	require.NotNil(t, fines[0].ReturnDate)
	assert.True(t, returned.Equal(*fines[0].ReturnDate))

	records, err := repo.ListRecords(ctx, db)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "john_doe", records[0].Username)
}

func TestDeletingBookDetachesBorrow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBorrowRepository(logger.Nop())

	user := createUser(t, db, "john_doe")
	book := createBook(t, db, "Dune")

	borrow := &domain.Borrow{UserID: user.ID, BookID: book.ID, BorrowDate: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, db, borrow))

	require.NoError(t, NewBookRepository(logger.Nop()).Delete(ctx, db, book.ID))

	detached, err := repo.FindByID(ctx, db, borrow.ID)
	require.NoError(t, err)
	require.NotNil(t, detached)
	assert.Zero(t, detached.BookID)
	assert.Equal(t, user.ID, detached.UserID)

	require.NoError(t, repo.Delete(ctx, db, borrow.ID))
	assert.ErrorIs(t, repo.Delete(ctx, db, borrow.ID), domain.ErrBorrowNotFound)
}

func TestAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewAuditLogRepository(logger.Nop())

	actor := int64(7)
	require.NoError(t, repo.Create(ctx, db, &domain.AuditLog{
		EntityType: domain.EntityTypeBorrow, EntityID: 1, Action: domain.ActionTypeBorrow, ActorID: &actor,
	}))
	require.NoError(t, repo.Create(ctx, db, &domain.AuditLog{
		EntityType: domain.EntityTypeBorrow, EntityID: 1, Action: domain.ActionTypeReturn, Details: "overdue_fine=0",
	}))
	require.NoError(t, repo.Create(ctx, db, &domain.AuditLog{
		EntityType: domain.EntityTypeBook, EntityID: 2, Action: domain.ActionTypeCreate,
	}))

	logs, err := repo.FindByEntityID(ctx, db, domain.EntityTypeBorrow, 1)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.ActionTypeReturn, logs[0].Action)
	assert.Nil(t, logs[0].ActorID)
	require.NotNil(t, logs[1].ActorID)
	assert.Equal(t, actor, *logs[1].ActorID)

	page, err := repo.FindAll(ctx, db, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
