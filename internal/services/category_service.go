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

type categoryService struct {
	repo      repositories.Repository
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewCategoryService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CategoryService {
	return &categoryService{
		repo:      repo,
		logger:    NewServiceLogger(logger, "category"),
		validator: validator,
	}
}

func (s *categoryService) Create(ctx context.Context, req *CategoryRequest, caller *auth.Identity) (category *models.Category, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "create_category", callerID(caller), "", start, err)
	}(time.Now())

	if !caller.IsAdmin() {
		return nil, ErrInsufficientPermissions
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err = s.checkName(ctx, name, nil); err != nil {
		return nil, err
	}

	category = &models.Category{Name: name, Description: req.Description}
	if err = s.repo.Category().Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.Category().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.repo.Category().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, req *CategoryRequest, caller *auth.Identity) (category *models.Category, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "update_category", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if !caller.IsAdmin() {
		return nil, ErrInsufficientPermissions
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	category, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err = s.checkName(ctx, name, &id); err != nil {
		return nil, err
	}

	category.Name = name
	category.Description = req.Description
	if err = s.repo.Category().Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// Delete removes the category; dumps in it become uncategorized
func (s *categoryService) Delete(ctx context.Context, id uint, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "delete_category", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if !caller.IsAdmin() {
		return ErrInsufficientPermissions
	}
	if err = s.repo.Category().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *categoryService) checkName(ctx context.Context, name string, excludeID *uint) error {
	exists, err := s.repo.Category().ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return ErrCategoryDuplicateName
	}
	return nil
}
