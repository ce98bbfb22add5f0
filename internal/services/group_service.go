package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
)

type groupService struct {
	repo      repositories.Repository
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewGroupService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) GroupService {
	return &groupService{
		repo:      repo,
		logger:    NewServiceLogger(logger, "group"),
		validator: validator,
	}
}

// Create stores the group and adds the creator as its first member
func (s *groupService) Create(ctx context.Context, req *CreateGroupRequest, caller *auth.Identity) (group *models.Group, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "create_group", callerID(caller), "", start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	group = &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedBy:   caller.UserID,
	}
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Group().Create(ctx, group); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		return tx.Group().AddMember(ctx, &models.GroupMember{
			GroupID:  group.ID,
			UserID:   caller.UserID,
			JoinedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *groupService) Get(ctx context.Context, id uint, caller *auth.Identity) (*models.Group, error) {
	group, err := s.repo.Group().GetByIDWithMembers(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if s.canManage(group, caller) {
		return group, nil
	}
	for _, m := range group.Members {
		if m.UserID == callerID(caller) {
			return group, nil
		}
	}
	return nil, NewPermissionError(callerID(caller), id, "group", "read", "not a member")
}

func (s *groupService) ListMine(ctx context.Context, caller *auth.Identity) ([]*models.Group, error) {
	groups, err := s.repo.Group().ListByMember(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *groupService) ListAll(ctx context.Context, opts repositories.ListOptions, caller *auth.Identity) (*GroupListResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrInsufficientPermissions
	}
	groups, total, err := s.repo.Group().List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return &GroupListResponse{Groups: groups, Total: total}, nil
}

func (s *groupService) AddMember(ctx context.Context, id uint, req *AddMemberRequest, caller *auth.Identity) (member *models.GroupMember, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "add_group_member", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	group, err := s.loadManaged(ctx, id, caller, "add members to")
	if err != nil {
		return nil, err
	}

	var user *models.User
	if req.UserID != "" {
		user, err = s.repo.User().GetByID(ctx, req.UserID)
	} else {
		user, err = s.repo.User().GetByUsername(ctx, req.Username)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	member = &models.GroupMember{
		GroupID:  group.ID,
		UserID:   user.ID,
		JoinedAt: time.Now(),
	}
	if err = s.repo.Group().AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add group member: %w", err)
	}
	member.User = user
	return member, nil
}

// RemoveMember is allowed to the group owner, an admin, or the member
// leaving on their own.
func (s *groupService) RemoveMember(ctx context.Context, id uint, userID string, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "remove_group_member", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	group, err := s.loadGroup(ctx, id)
	if err != nil {
		return err
	}
	if userID != callerID(caller) && !s.canManage(group, caller) {
		return NewPermissionError(callerID(caller), id, "group", "remove members from", "only the owner manages members")
	}

	if err = s.repo.Group().RemoveMember(ctx, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

func (s *groupService) Delete(ctx context.Context, id uint, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "delete_group", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if _, err = s.loadManaged(ctx, id, caller, "delete"); err != nil {
		return err
	}
	if err = s.repo.Group().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

func (s *groupService) loadGroup(ctx context.Context, id uint) (*models.Group, error) {
	group, err := s.repo.Group().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func (s *groupService) loadManaged(ctx context.Context, id uint, caller *auth.Identity, action string) (*models.Group, error) {
	group, err := s.loadGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(group, caller) {
		return nil, NewPermissionError(callerID(caller), id, "group", action, "only the owner manages the group")
	}
	return group, nil
}

func (s *groupService) canManage(group *models.Group, caller *auth.Identity) bool {
	return caller != nil && (caller.IsAdmin() || group.CreatedBy == caller.UserID)
}
