package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/domain"
)

func TestAdminListsAndDeletesBorrows(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := env.register(t, "john_doe")
	adminUser, err := env.users.CreateAdmin(ctx, domain.RegisterRequest{
		Username: "admin_user", Email: "admin@example.com", Password: "adminpassword123",
	})
	require.NoError(t, err)
	bookID := env.addBook(t, "Dune")

	res, err := env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	users, err := env.admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	records, err := env.admin.ListBorrowRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "john_doe", records[0].Username)
	assert.Equal(t, "Dune", records[0].BookTitle)
	assert.Nil(t, records[0].ReturnDate)

	require.NoError(t, env.admin.DeleteBorrowRecord(ctx, adminUser.ID, res.ID))
	assert.ErrorIs(t, env.admin.DeleteBorrowRecord(ctx, adminUser.ID, res.ID), domain.ErrBorrowNotFound)

	_, err = env.lending.Borrow(ctx, bookID, userID)
	require.NoError(t, err)

	logs, err := env.admin.ListAuditLogs(ctx, domain.Page{Page: 1, PerPage: 50})
	require.NoError(t, err)

	var deletes int
	for _, l := range logs {
		if l.EntityType == domain.EntityTypeBorrow && l.Action == domain.ActionTypeDelete {
			deletes++
			require.NotNil(t, l.ActorID)
			assert.Equal(t, adminUser.ID, *l.ActorID)
		}
	}
	assert.Equal(t, 1, deletes)
}
