package repositories

import (
	"context"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
)

// HistoryRepository interface for completed attempt records
type HistoryRepository interface {
	Create(ctx context.Context, history *models.AttemptHistory) error
	GetByID(ctx context.Context, id uint) (*models.AttemptHistory, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.AttemptHistory, error)
	ListByUser(ctx context.Context, userID string, filters HistoryFilters) ([]*models.AttemptHistory, int64, error)
	Delete(ctx context.Context, id uint) error
}
