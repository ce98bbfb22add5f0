package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"gorm.io/gorm"
)

var historySortColumns = map[string]string{
	"completed_at": "completed_at",
	"score":        "score",
}

type HistoryPostgreSQL struct {
	db *gorm.DB
}

func NewHistoryPostgreSQL(db *gorm.DB) repositories.HistoryRepository {
	return &HistoryPostgreSQL{db: db}
}

func (h *HistoryPostgreSQL) Create(ctx context.Context, history *models.AttemptHistory) error {
	if err := h.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to create attempt history: %w", err)
	}
	return nil
}

func (h *HistoryPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AttemptHistory, error) {
	var history models.AttemptHistory
	if err := h.db.WithContext(ctx).First(&history, id).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

func (h *HistoryPostgreSQL) GetBySessionID(ctx context.Context, sessionID string) (*models.AttemptHistory, error) {
	var history models.AttemptHistory
	if err := h.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&history).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

// ListByUser lists attempts without the heavy answer and question columns
func (h *HistoryPostgreSQL) ListByUser(ctx context.Context, userID string, filters repositories.HistoryFilters) ([]*models.AttemptHistory, int64, error) {
	query := h.db.WithContext(ctx).Model(&models.AttemptHistory{}).Where("user_id = ?", userID)
	if filters.DumpID != nil {
		query = query.Where("dump_id = ?", *filters.DumpID)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempt history: %w", err)
	}

	var histories []*models.AttemptHistory
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, historySortColumns, "completed_at", filters.Limit, filters.Offset)
	if err := query.Omit("answers", "questions").Find(&histories).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempt history: %w", err)
	}
	return histories, total, nil
}

func (h *HistoryPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := h.db.WithContext(ctx).Delete(&models.AttemptHistory{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete attempt history: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
