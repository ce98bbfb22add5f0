package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
)

// UserRepository interface for user accounts
type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// Upsert creates or refreshes a user known from an external identity provider
	Upsert(ctx context.Context, user *models.User) error

	// Query operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Activity tracking
	UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error
}
