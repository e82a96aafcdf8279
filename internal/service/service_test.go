package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/config"
	migrations "libraryapi/internal/database"
	"libraryapi/internal/domain"
	"libraryapi/internal/repository"
	"libraryapi/pkg/auth"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
	"libraryapi/pkg/tokenstore"
)

type testEnv struct {
	tx      *database.Transactor
	borrows domain.BorrowRepository
	books   domain.BookService
	users   domain.UserService
	lending *LendingService
	admin   domain.AdminService
	audit   domain.AuditLogService
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "library.db"),
	}
	log := logger.Nop()

	cm, err := database.NewConnectionManager(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	ms := migrations.NewMigrationService(cm.DB(), migrations.DialectFor(cfg.Driver), log)
	require.NoError(t, ms.RunMigrations(context.Background()))

	tx := database.NewTransactor(cm.DB(), log)
	bookRepo := repository.NewBookRepository(log)
	userRepo := repository.NewUserRepository(log)
	borrowRepo := repository.NewBorrowRepository(log)
	audit := NewAuditLogService(repository.NewAuditLogRepository(log), tx, log)

	env := &testEnv{
		tx:      tx,
		borrows: borrowRepo,
		audit:   audit,
		now:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	env.books = NewBookService(bookRepo, audit, tx, log)
	env.users = NewUserService(userRepo, audit, tokens, tokenstore.NewMemoryStore(), tx, log)
	env.admin = NewAdminService(userRepo, borrowRepo, audit, tx, log)

	lending := NewLendingService(borrowRepo, bookRepo, userRepo, audit, domain.DefaultFinePolicy(), tx, log).(*LendingService)
	lending.now = func() time.Time { return env.now }
	env.lending = lending

	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) register(t *testing.T, name string) int64 {
	t.Helper()
	user, err := e.users.Register(context.Background(), domain.RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) addBook(t *testing.T, title string) int64 {
	t.Helper()
	book, err := e.books.CreateBook(context.Background(), &domain.Book{
		Title:    title,
		Author:   "Frank Herbert",
		Language: "English",
	})
	require.NoError(t, err)
	return book.ID
}

const day = 24 * time.Hour

func TestBorrowCreatesOutstandingRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	res, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, bookID, res.BookID)
	assert.Equal(t, userID, res.UserID)
	assert.True(t, env.now.Equal(res.BorrowDate))

	borrowed, err := env.lending.ListBorrowedBooks(ctx, userID)
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, "Dune", borrowed[0].Title)

	fines, err := env.lending.ListOutstandingFines(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, fines.TotalOutstandingFines)
	assert.Empty(t, fines.Fines)
}

func TestBorrowTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	john := env.register(t, "john_doe")
	jane := env.register(t, "jane_doe")
	bookID := env.addBook(t, "Dune")

	_, err := env.lending.Borrow(ctx, bookID, john)
	require.NoError(t, err)

	_, err = env.lending.Borrow(ctx, bookID, jane)
	assert.ErrorIs(t, err, domain.ErrBookAlreadyBorrowed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = env.lending.Borrow(ctx, bookID, john)
	assert.ErrorIs(t, err, domain.ErrBookAlreadyBorrowed)
}

func TestBorrowUnknownBook(t *testing.T) {
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")

	_, err := env.lending.Borrow(context.Background(), 404, userID)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestConcurrentBorrowsAdmitOne(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bookID := env.addBook(t, "Dune")

	const n = 8
	users := make([]int64, n)
	for i := range users {
		users[i] = env.register(t, "reader"+string(rune('a'+i)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, id := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := env.lending.Borrow(ctx, bookID, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrBookAlreadyBorrowed):
				conflicts++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)
}

func TestReturnOnTimeKeepsFineAtZero(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	_, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	env.advance(7 * day)
	res, err := env.lending.Return(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.OverdueFine)
	assert.True(t, env.now.Equal(res.ReturnDate))

	_, err = env.lending.PayFine(ctx, bookID, userID)
	assert.ErrorIs(t, err, domain.ErrNoOutstandingFine)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// storeFine writes a fine straight onto an outstanding borrow.
func (e *testEnv) storeFine(t *testing.T, borrowID int64, fine float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.tx.WithinTx(ctx, "store_fine", func(q database.Querier) error {
		borrow, err := e.borrows.FindByID(ctx, q, borrowID)
		if err != nil {
			return err
		}
		borrow.OverdueFine = fine
		return e.borrows.Update(ctx, q, borrow)
	}))
}

func (e *testEnv) storedBorrow(t *testing.T, borrowID int64) *domain.Borrow {
	t.Helper()
	borrow, err := e.borrows.FindByID(context.Background(), e.tx.DB(), borrowID)
	require.NoError(t, err)
	require.NotNil(t, borrow)
	return borrow
}

func TestReturnOnTimeKeepsStoredFine(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	borrowed, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)
	env.storeFine(t, borrowed.ID, 6.0)

	env.advance(7*day + 23*time.Hour)
	res, err := env.lending.Return(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.OverdueFine)

	stored := env.storedBorrow(t, borrowed.ID)
	assert.False(t, stored.Outstanding())
	assert.Equal(t, 6.0, stored.OverdueFine)
}

func TestPayFineOnOutstandingBorrow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	borrowed, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)
	env.storeFine(t, borrowed.ID, 6.0)

	paid, err := env.lending.PayFine(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, paid.PaidAmount)

	stored := env.storedBorrow(t, borrowed.ID)
	assert.True(t, stored.Outstanding())
	assert.Equal(t, 0.0, stored.OverdueFine)

	borrowedBooks, err := env.lending.ListBorrowedBooks(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, borrowedBooks, 1)
}

func TestBorrowByDeletedCaller(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	require.NoError(t, env.users.DeleteProfile(ctx, userID))

	_, err := env.lending.Borrow(ctx, bookID, userID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	outstanding, err := env.borrows.FindOutstandingByBook(ctx, env.tx.DB(), bookID)
	require.NoError(t, err)
	assert.Nil(t, outstanding)
}

func TestLateReturnAndPayFine(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	_, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	env.advance(17 * day)
	res, err := env.lending.Return(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.OverdueFine)

	summary, err := env.lending.ListOutstandingFines(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summary.Fines, 1)
	assert.Equal(t, 20.0, summary.TotalOutstandingFines)
	assert.Equal(t, "Dune", summary.Fines[0].BookTitle)
	require.NotNil(t, summary.Fines[0].ReturnDate)

	paid, err := env.lending.PayFine(ctx, bookID, userID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, paid.PaidAmount)

	_, err = env.lending.PayFine(ctx, bookID, userID)
	assert.ErrorIs(t, err, domain.ErrNoOutstandingFine)

	summary, err = env.lending.ListOutstandingFines(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalOutstandingFines)
}

func TestOutstandingFinesAreSummed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	dune := env.addBook(t, "Dune")
	emma := env.addBook(t, "Emma")

	_, err := env.lending.Borrow(ctx, dune, userID)
	require.NoError(t, err)
	_, err = env.lending.Borrow(ctx, emma, userID)
	require.NoError(t, err)

	env.advance(14 * day)
	res, err := env.lending.Return(ctx, emma, userID)
	require.NoError(t, err)
	assert.Equal(t, 14.0, res.OverdueFine)

	env.advance(3 * day)
	res, err = env.lending.Return(ctx, dune, userID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.OverdueFine)

	summary, err := env.lending.ListOutstandingFines(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, summary.Fines, 2)
	assert.Equal(t, 34.0, summary.TotalOutstandingFines)
}

func TestReturnRequiresCallersOutstandingBorrow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	john := env.register(t, "john_doe")
	jane := env.register(t, "jane_doe")
	bookID := env.addBook(t, "Dune")

	_, err := env.lending.Return(ctx, bookID, john)
	assert.ErrorIs(t, err, domain.ErrBookNotBorrowed)

	_, err = env.lending.Borrow(ctx, bookID, john)
	require.NoError(t, err)

	_, err = env.lending.Return(ctx, bookID, jane)
	assert.ErrorIs(t, err, domain.ErrBookNotBorrowed)

	_, err = env.lending.Return(ctx, 999, john)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	_, err = env.lending.Return(ctx, bookID, john)
	require.NoError(t, err)

	_, err = env.lending.Return(ctx, bookID, john)
	assert.ErrorIs(t, err, domain.ErrBookNotBorrowed)
}

func TestPayFineWithoutBorrow(t *testing.T) {
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	_, err := env.lending.PayFine(context.Background(), bookID, userID)
	assert.ErrorIs(t, err, domain.ErrBorrowNotFound)
}

func TestLendingIsAudited(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	bookID := env.addBook(t, "Dune")

	res, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)
	env.advance(10 * day)
	_, err = env.lending.Return(ctx, bookID, userID)
	require.NoError(t, err)
	_, err = env.lending.PayFine(ctx, bookID, userID)
	require.NoError(t, err)

	logs, err := env.audit.GetEntityLogs(ctx, domain.EntityTypeBorrow, res.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	actions := []domain.ActionType{logs[0].Action, logs[1].Action, logs[2].Action}
	assert.ElementsMatch(t, []domain.ActionType{
		domain.ActionTypeBorrow, domain.ActionTypeReturn, domain.ActionTypePayFine,
	}, actions)
	for _, l := range logs {
		require.NotNil(t, l.ActorID)
		assert.Equal(t, userID, *l.ActorID)
	}
}
