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

const userColumns = `id, username, email, password_hash, is_admin`

type UserRepository struct {
	logger logger.Logger
}

func NewUserRepository(logger logger.Logger) domain.UserRepository {
	return &UserRepository{
		logger: logger,
	}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) findOne(ctx context.Context, q database.Querier, column string, value any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(q.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "User lookup failed", map[string]interface{}{column: value, "error": err.Error()})
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}

	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, q database.Querier, id int64) (*domain.User, error) {
	return r.findOne(ctx, q, "id", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, q database.Querier, email string) (*domain.User, error) {
	return r.findOne(ctx, q, "email", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, q database.Querier, username string) (*domain.User, error) {
	return r.findOne(ctx, q, "username", username)
}

func (r *UserRepository) FindAll(ctx context.Context, q database.Querier) ([]*domain.User, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		r.logger.ErrorContext(ctx, "User listing failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, q database.Querier, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		time.Now().UTC(),
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		r.logger.ErrorContext(ctx, "User could not be created", map[string]interface{}{"username": user.Username, "error": err.Error()})
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, q database.Querier, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, is_admin = $4
		WHERE id = $5
	`

	res, err := q.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		r.logger.ErrorContext(ctx, "User could not be updated", map[string]interface{}{"id": user.ID, "error": err.Error()})
		return fmt.Errorf("update user: %w", err)
	}

	ok, err := affectedOne(res.RowsAffected())
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, q database.Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "User could not be deleted", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("delete user: %w", err)
	}

	ok, err := affectedOne(res.RowsAffected())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}

	return nil
}
