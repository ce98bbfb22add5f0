package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		logger:    NewServiceLogger(logger, "user"),
		validator: validator,
	}
}

func (s *userService) Get(ctx context.Context, id string, caller *auth.Identity) (*models.User, error) {
	if id != callerID(caller) && !caller.IsAdmin() {
		return nil, ErrInsufficientPermissions
	}
	return s.load(ctx, id)
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, caller *auth.Identity) (*UserListResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrInsufficientPermissions
	}
	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{
		Users:  users,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

func (s *userService) UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest, caller *auth.Identity) (user *models.User, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "update_user_role", callerID(caller), id, start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err = s.loadForAdmin(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	user.Role = req.Role
	if err = s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) SetActive(ctx context.Context, id string, active bool, caller *auth.Identity) (user *models.User, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "set_user_active", callerID(caller), id, start, err)
	}(time.Now())

	user, err = s.loadForAdmin(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	if err = s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id string, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "delete_user", callerID(caller), id, start, err)
	}(time.Now())

	if _, err = s.loadForAdmin(ctx, id, caller); err != nil {
		return err
	}
	if err = s.repo.User().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// loadForAdmin loads the target of an admin action. Admins cannot act on
// their own account so at least one admin always remains.
func (s *userService) loadForAdmin(ctx context.Context, id string, caller *auth.Identity) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrInsufficientPermissions
	}
	if id == caller.UserID {
		return nil, ErrSelfModification
	}
	return s.load(ctx, id)
}

func (s *userService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
