package service

import (
	"context"
	"errors"
	"fmt"

	"libraryapi/internal/domain"
	"libraryapi/pkg/auth"
	"libraryapi/pkg/database"
	"libraryapi/pkg/logger"
	"libraryapi/pkg/metrics"
	"libraryapi/pkg/tokenstore"
)

type UserService struct {
	repo    domain.UserRepository
	audit   domain.AuditLogService
	tokens  *auth.TokenManager
	revoked tokenstore.RevocationStore
	tx      *database.Transactor
	logger  logger.Logger
}

func NewUserService(
	repo domain.UserRepository,
	audit domain.AuditLogService,
	tokens *auth.TokenManager,
	revoked tokenstore.RevocationStore,
	tx *database.Transactor,
	logger logger.Logger,
) domain.UserService {
	return &UserService{
		repo:    repo,
		audit:   audit,
		tokens:  tokens,
		revoked: revoked,
		tx:      tx,
		logger:  logger,
	}
}

func (s *UserService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.PublicUser, error) {
	return s.create(ctx, req, false)
}

func (s *UserService) CreateAdmin(ctx context.Context, req domain.RegisterRequest) (*domain.PublicUser, error) {
	return s.create(ctx, req, true)
}

func (s *UserService) create(ctx context.Context, req domain.RegisterRequest, admin bool) (*domain.PublicUser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      admin,
	}

	err = s.tx.WithinTx(ctx, "register_user", func(q database.Querier) error {
		if err := s.ensureAvailable(ctx, q, 0, user.Username, user.Email); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, q, user); err != nil {
			return err
		}
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeUser,
			EntityID:   user.ID,
			Action:     domain.ActionTypeCreate,
			Details:    fmt.Sprintf("username=%q admin=%t", user.Username, admin),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", map[string]interface{}{"user_id": user.ID, "admin": admin})

	public := user.Public()
	return &public, nil
}

// ensureAvailable fails when username or email belongs to a user other
// than selfID.
func (s *UserService) ensureAvailable(ctx context.Context, q database.Querier, selfID int64, username, email string) error {
	byName, err := s.repo.FindByUsername(ctx, q, username)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != selfID {
		return domain.ErrUserAlreadyExists
	}

	byEmail, err := s.repo.FindByEmail(ctx, q, email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		return domain.ErrUserAlreadyExists
	}

	return nil
}

func (s *UserService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, s.tx.DB(), req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.RecordAuthAttempt("failure")
		s.logger.WarnContext(ctx, "Login rejected", map[string]interface{}{"email": req.Email})
		return nil, domain.ErrInvalidCredentials
	}

	access, _, err := s.tokens.Issue(user.ID, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.Issue(user.ID, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt("success")
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.verify(ctx, refreshToken, auth.RefreshToken)
	if err != nil {
		return "", err
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", domain.ErrInvalidToken
	}

	access, _, err := s.tokens.Issue(userID, auth.AccessToken)
	if err != nil {
		return "", err
	}
	return access, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := s.verify(ctx, token, auth.AccessToken)
	if err != nil {
		return err
	}

	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.ErrorContext(ctx, "Token could not be revoked", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *UserService) CallerID(ctx context.Context, token string) (int64, error) {
	claims, err := s.verify(ctx, token, auth.AccessToken)
	if err != nil {
		return 0, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	return userID, nil
}

func (s *UserService) verify(ctx context.Context, token string, typ auth.TokenType) (*auth.Claims, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	claims, err := s.tokens.Parse(token, typ)
	if err != nil {
		s.logger.DebugContext(ctx, "Token rejected", map[string]interface{}{"error": err.Error()})
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// IsAdmin reports false for users that no longer exist.
func (s *UserService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := s.repo.FindByID(ctx, s.tx.DB(), userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*domain.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, s.tx.DB(), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	public := user.Public()
	return &public, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, patch domain.ProfilePatch) (*domain.PublicUser, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, "update_profile", func(q database.Querier) error {
		existing, err := s.repo.FindByID(ctx, q, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrUserNotFound
		}

		if patch.Username != nil {
			existing.Username = *patch.Username
		}
		if patch.Email != nil {
			existing.Email = *patch.Email
		}

		if err := s.ensureAvailable(ctx, q, existing.ID, existing.Username, existing.Email); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, q, existing); err != nil {
			return err
		}

		user = existing
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeUser,
			EntityID:   userID,
			Action:     domain.ActionTypeUpdate,
		})
	})
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// DeleteProfile removes the account. Borrow history stays with a null
// user reference.
func (s *UserService) DeleteProfile(ctx context.Context, userID int64) error {
	return s.tx.WithinTx(ctx, "delete_profile", func(q database.Querier) error {
		if err := s.repo.Delete(ctx, q, userID); err != nil {
			return err
		}
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeUser,
			EntityID:   userID,
			Action:     domain.ActionTypeDelete,
		})
	})
}

func (s *UserService) Promote(ctx context.Context, email string) error {
	err := s.tx.WithinTx(ctx, "promote_user", func(q database.Querier) error {
		user, err := s.repo.FindByEmail(ctx, q, email)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if user.IsAdmin {
			return nil
		}

		user.IsAdmin = true
		if err := s.repo.Update(ctx, q, user); err != nil {
			return err
		}
		return s.audit.LogAction(ctx, q, domain.AuditLog{
			EntityType: domain.EntityTypeUser,
			EntityID:   user.ID,
			Action:     domain.ActionTypeUpdate,
			Details:    "promoted to admin",
		})
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.ErrorContext(ctx, "User could not be promoted", map[string]interface{}{"email": email, "error": err.Error()})
	}
	return err
}
