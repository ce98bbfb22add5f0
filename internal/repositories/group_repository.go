package repositories

import (
	"context"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
)

// GroupRepository interface for user groups and memberships
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetByIDWithMembers(ctx context.Context, id uint) (*models.Group, error)
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, opts ListOptions) ([]*models.Group, int64, error)
	ListByMember(ctx context.Context, userID string) ([]*models.Group, error)

	AddMember(ctx context.Context, member *models.GroupMember) error
	RemoveMember(ctx context.Context, groupID uint, userID string) error
	IsMember(ctx context.Context, groupID uint, userID string) (bool, error)
}

// CategoryRepository interface for dump categories
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*models.Category, error)
	ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error)
}
