package repositories

import (
	"context"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
)

// DumpRepository interface for dump and share operations
type DumpRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, dump *models.Dump) error
	GetByID(ctx context.Context, id uint) (*models.Dump, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Dump, error) // Include category, shares
	GetForUpdate(ctx context.Context, id uint) (*models.Dump, error)       // Row lock, use inside WithTransaction
	Update(ctx context.Context, dump *models.Dump) error
	UpdateQuestions(ctx context.Context, id uint, questions []models.Question) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	ListForUser(ctx context.Context, userID string, filters DumpFilters) ([]*models.Dump, int64, error)
	List(ctx context.Context, filters DumpFilters) ([]*models.Dump, int64, error)

	// Sharing
	Share(ctx context.Context, share *models.DumpShare) error
	Unshare(ctx context.Context, dumpID, groupID uint) error
	GetShares(ctx context.Context, dumpID uint) ([]*models.DumpShare, error)
	// GrantedPermissions returns the permissions granted to userID on a dump
	// through the groups the user belongs to.
	GrantedPermissions(ctx context.Context, dumpID uint, userID string) ([]models.SharePermission, error)
}
