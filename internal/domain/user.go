package domain

import (
	"context"
	"net/mail"
	"strings"

	"libraryapi/pkg/database"
)

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
}

// PublicUser is the registration and profile view of a user.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return NewValidationError("username is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return NewValidationError("password is required")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfilePatch updates username and/or email; nil fields are kept.
type ProfilePatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (p ProfilePatch) Validate() error {
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return NewValidationError("username must not be empty")
	}
	if p.Email != nil {
		return validateEmail(*p.Email)
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewValidationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("email is not a valid address")
	}
	return nil
}

// TokenPair is returned on login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserRepository interface {
	FindByID(ctx context.Context, q database.Querier, id int64) (*User, error)
	FindByEmail(ctx context.Context, q database.Querier, email string) (*User, error)
	FindByUsername(ctx context.Context, q database.Querier, username string) (*User, error)
	FindAll(ctx context.Context, q database.Querier) ([]*User, error)
	Create(ctx context.Context, q database.Querier, user *User) error
	Update(ctx context.Context, q database.Querier, user *User) error
	Delete(ctx context.Context, q database.Querier, id int64) error
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*PublicUser, error)
	Authenticate(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, token string) error
	CallerID(ctx context.Context, token string) (int64, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	GetProfile(ctx context.Context, userID int64) (*PublicUser, error)
	UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) (*PublicUser, error)
	DeleteProfile(ctx context.Context, userID int64) error

	CreateAdmin(ctx context.Context, req RegisterRequest) (*PublicUser, error)
	Promote(ctx context.Context, email string) error
}
