package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var dumpSortColumns = map[string]string{
	"created_at": "dumps.created_at",
	"updated_at": "dumps.updated_at",
	"name":       "dumps.name",
}

type DumpPostgreSQL struct {
	db *gorm.DB
}

func NewDumpPostgreSQL(db *gorm.DB) repositories.DumpRepository {
	return &DumpPostgreSQL{db: db}
}

// Create creates a new dump
func (d *DumpPostgreSQL) Create(ctx context.Context, dump *models.Dump) error {
	if err := d.db.WithContext(ctx).Omit("Category", "Shares").Create(dump).Error; err != nil {
		return fmt.Errorf("failed to create dump: %w", err)
	}
	d.calculateComputedFields(dump)
	return nil
}

// GetByID retrieves a dump with its questions
func (d *DumpPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Dump, error) {
	var dump models.Dump
	if err := d.db.WithContext(ctx).First(&dump, id).Error; err != nil {
		return nil, err
	}
	d.calculateComputedFields(&dump)
	return &dump, nil
}

// GetByIDWithDetails retrieves a dump with category and shares
func (d *DumpPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Dump, error) {
	var dump models.Dump
	err := d.db.WithContext(ctx).
		Preload("Category").
		Preload("Shares").
		Preload("Shares.Group").
		First(&dump, id).Error
	if err != nil {
		return nil, err
	}
	d.calculateComputedFields(&dump)
	return &dump, nil
}

// GetForUpdate retrieves a dump and locks its row until the transaction ends
func (d *DumpPostgreSQL) GetForUpdate(ctx context.Context, id uint) (*models.Dump, error) {
	var dump models.Dump
	err := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&dump, id).Error
	if err != nil {
		return nil, err
	}
	d.calculateComputedFields(&dump)
	return &dump, nil
}

// Update saves the dump metadata and questions
func (d *DumpPostgreSQL) Update(ctx context.Context, dump *models.Dump) error {
	result := d.db.WithContext(ctx).
		Model(&models.Dump{ID: dump.ID}).
		Select("Name", "Description", "Questions", "IsPublic", "TimeLimit", "ShowAnswerImmediately", "CategoryID").
		Updates(dump)
	if result.Error != nil {
		return fmt.Errorf("failed to update dump: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	d.calculateComputedFields(dump)
	return nil
}

// UpdateQuestions replaces the question list only
func (d *DumpPostgreSQL) UpdateQuestions(ctx context.Context, id uint, questions []models.Question) error {
	result := d.db.WithContext(ctx).
		Model(&models.Dump{ID: id}).
		Updates(map[string]interface{}{
			"questions":  datatypes.NewJSONSlice(questions),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update dump questions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes the dump and drops its shares
func (d *DumpPostgreSQL) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dump_id = ?", id).Delete(&models.DumpShare{}).Error; err != nil {
			return fmt.Errorf("failed to delete dump shares: %w", err)
		}
		result := tx.Delete(&models.Dump{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete dump: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListForUser lists the dumps userID may read, narrowed by filters.Scope
func (d *DumpPostgreSQL) ListForUser(ctx context.Context, userID string, filters repositories.DumpFilters) ([]*models.Dump, int64, error) {
	db := d.db.WithContext(ctx)
	memberGroups := db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	sharedDumps := db.Model(&models.DumpShare{}).Select("dump_id").Where("group_id IN (?)", memberGroups)

	query := db.Model(&models.Dump{})
	switch filters.Scope {
	case repositories.ScopeMine:
		query = query.Where("created_by = ?", userID)
	case repositories.ScopePublic:
		query = query.Where("is_public = ?", true)
	case repositories.ScopeShared:
		query = query.Where("id IN (?) AND created_by <> ?", sharedDumps, userID)
	default:
		query = query.Where("created_by = ? OR is_public = ? OR id IN (?)", userID, true, sharedDumps)
	}
	return d.list(query, filters)
}

// List lists every dump, used by administrators
func (d *DumpPostgreSQL) List(ctx context.Context, filters repositories.DumpFilters) ([]*models.Dump, int64, error) {
	return d.list(d.db.WithContext(ctx).Model(&models.Dump{}), filters)
}

func (d *DumpPostgreSQL) list(query *gorm.DB, filters repositories.DumpFilters) ([]*models.Dump, int64, error) {
	if filters.Search != "" {
		query = query.Where("name ILIKE ?", likePattern(filters.Search))
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count dumps: %w", err)
	}

	var dumps []*models.Dump
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, dumpSortColumns, "dumps.updated_at", filters.Limit, filters.Offset)
	if err := query.Preload("Category").Find(&dumps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list dumps: %w", err)
	}
	for _, dump := range dumps {
		d.calculateComputedFields(dump)
	}
	return dumps, total, nil
}

// Share grants or updates a group permission on a dump
func (d *DumpPostgreSQL) Share(ctx context.Context, share *models.DumpShare) error {
	if share.SharedAt.IsZero() {
		share.SharedAt = time.Now()
	}
	err := d.db.WithContext(ctx).
		Omit("Group").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dump_id"}, {Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission", "shared_by", "shared_at"}),
		}).
		Create(share).Error
	if err != nil {
		return fmt.Errorf("failed to share dump: %w", err)
	}
	return nil
}

func (d *DumpPostgreSQL) Unshare(ctx context.Context, dumpID, groupID uint) error {
	result := d.db.WithContext(ctx).
		Where("dump_id = ? AND group_id = ?", dumpID, groupID).
		Delete(&models.DumpShare{})
	if result.Error != nil {
		return fmt.Errorf("failed to unshare dump: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *DumpPostgreSQL) GetShares(ctx context.Context, dumpID uint) ([]*models.DumpShare, error) {
	var shares []*models.DumpShare
	if err := d.db.WithContext(ctx).
		Where("dump_id = ?", dumpID).
		Preload("Group").
		Order("shared_at ASC").
		Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to get dump shares: %w", err)
	}
	return shares, nil
}

func (d *DumpPostgreSQL) GrantedPermissions(ctx context.Context, dumpID uint, userID string) ([]models.SharePermission, error) {
	var permissions []models.SharePermission
	err := d.db.WithContext(ctx).
		Model(&models.DumpShare{}).
		Joins("JOIN group_members ON group_members.group_id = dump_shares.group_id").
		Where("dump_shares.dump_id = ? AND group_members.user_id = ?", dumpID, userID).
		Distinct().
		Pluck("dump_shares.permission", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get granted permissions: %w", err)
	}
	return permissions, nil
}

func (d *DumpPostgreSQL) calculateComputedFields(dump *models.Dump) {
	dump.QuestionCount = len(dump.Questions)
}
