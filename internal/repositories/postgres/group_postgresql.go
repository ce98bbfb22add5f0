package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupPostgreSQL struct {
	db *gorm.DB
}

func NewGroupPostgreSQL(db *gorm.DB) repositories.GroupRepository {
	return &GroupPostgreSQL{db: db}
}

func (g *GroupPostgreSQL) Create(ctx context.Context, group *models.Group) error {
	if err := g.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (g *GroupPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := g.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (g *GroupPostgreSQL) GetByIDWithMembers(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	err := g.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Delete removes the group with its memberships and dump grants
func (g *GroupPostgreSQL) Delete(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.DumpShare{}).Error; err != nil {
			return fmt.Errorf("failed to delete group shares: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return fmt.Errorf("failed to delete group members: %w", err)
		}
		result := tx.Delete(&models.Group{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete group: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (g *GroupPostgreSQL) List(ctx context.Context, opts repositories.ListOptions) ([]*models.Group, int64, error) {
	query := g.db.WithContext(ctx).Model(&models.Group{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	var groups []*models.Group
	query = applyPaginationAndSort(query, "", "asc", nil, "name", opts.Limit, opts.Offset)
	if err := query.Find(&groups).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, total, nil
}

func (g *GroupPostgreSQL) ListByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	var groups []*models.Group
	err := g.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for member: %w", err)
	}
	return groups, nil
}

// AddMember is idempotent for an existing membership
func (g *GroupPostgreSQL) AddMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	err := g.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member).Error
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (g *GroupPostgreSQL) RemoveMember(ctx context.Context, groupID uint, userID string) error {
	result := g.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove group member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GroupPostgreSQL) IsMember(ctx context.Context, groupID uint, userID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}
