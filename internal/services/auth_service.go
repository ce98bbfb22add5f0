package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
	"github.com/google/uuid"
)

type authService struct {
	repo      repositories.Repository
	verifier  auth.Verifier
	issuer    *auth.LocalIssuer // nil when an external provider issues tokens
	logger    *ServiceLogger
	validator *validator.Validator
}

// NewAuthService wires token verification. Pass a nil issuer to disable
// local registration and login.
func NewAuthService(repo repositories.Repository, verifier auth.Verifier, issuer *auth.LocalIssuer, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		verifier:  verifier,
		issuer:    issuer,
		logger:    NewServiceLogger(logger, "auth"),
		validator: validator,
	}
}

// Register creates a local account. The first account of an empty
// installation becomes an admin.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (user *models.User, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "register", "", req.Username, start, err)
	}(time.Now())

	if s.issuer == nil {
		return nil, ErrLocalAuthDisabled
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if taken, err := s.repo.User().ExistsByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.repo.User().ExistsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := models.RoleUser
	if _, total, err := s.repo.User().List(ctx, repositories.UserFilters{Limit: 1}); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	} else if total == 0 {
		role = models.RoleAdmin
	}

	user = &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err = s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (resp *TokenResponse, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "login", "", req.Username, start, err)
	}(time.Now())

	if s.issuer == nil {
		return nil, ErrLocalAuthDisabled
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err = auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, expires, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.repo.User().UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Logger().Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		User:        user,
	}, nil
}

// Authenticate verifies a bearer token and resolves the stored account.
// Accounts from an external provider are created on first sight. The role
// and active flag always come from the database.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, identity.UserID)
	switch {
	case err == nil:
	case repositories.IsNotFoundError(err) && s.issuer == nil:
		user = &models.User{
			ID:       identity.UserID,
			Username: identity.Username,
			Email:    identity.Email,
			Role:     identity.Role,
			IsActive: true,
		}
		if err := s.repo.User().Upsert(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to sync external user: %w", err)
		}
	case repositories.IsNotFoundError(err):
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	identity.Role = user.Role
	identity.Username = user.Username
	return identity, nil
}

func (s *authService) Me(ctx context.Context, caller *auth.Identity) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, callerID(caller))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
