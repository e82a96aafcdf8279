package seed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/config"
	migrations "libraryapi/internal/database"
	"libraryapi/internal/repository"
	"libraryapi/pkg/auth"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
)

func newSeeder(t *testing.T) (*Seeder, *database.Transactor) {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "seed.db"),
	}
	cm, err := database.NewConnectionManager(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	ms := migrations.NewMigrationService(cm.DB(), migrations.DialectFor(cfg.Driver), logger.Nop())
	require.NoError(t, ms.RunMigrations(context.Background()))

	tx := database.NewTransactor(cm.DB(), logger.Nop())
	s := NewSeeder(
		repository.NewUserRepository(logger.Nop()),
		repository.NewBookRepository(logger.Nop()),
		repository.NewBorrowRepository(logger.Nop()),
		tx,
		logger.Nop(),
	)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, tx
}

func TestRunSeedsDataSet(t *testing.T) {
	s, tx := newSeeder(t)
	ctx := context.Background()

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 3, Books: 2, Borrows: 2}, res)

	admin, err := s.users.FindByEmail(ctx, tx.DB(), "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "adminpassword123"))

	john, err := s.users.FindByEmail(ctx, tx.DB(), "john.doe@example.com")
	require.NoError(t, err)
	require.NotNil(t, john)
	assert.False(t, john.IsAdmin)

	fines, err := s.borrows.ListFinesByUser(ctx, tx.DB(), john.ID)
	require.NoError(t, err)
	require.Len(t, fines, 1)
	assert.Equal(t, 6.0, fines[0].FineAmount)

	records, err := s.borrows.ListRecords(ctx, tx.DB())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRunSkipsSeededDatabase(t *testing.T) {
	s, _ := newSeeder(t)
	ctx := context.Background()

	_, err := s.Run(ctx)
	require.NoError(t, err)

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Users)
}
