package repositories

import (
	"context"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
)

// ImportJobRepository stores the import log of each dump
type ImportJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	ListByDump(ctx context.Context, dumpID uint, opts ListOptions) ([]*models.ImportJob, int64, error)
}
