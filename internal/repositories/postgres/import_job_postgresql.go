package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"gorm.io/gorm"
)

type ImportJobPostgreSQL struct {
	db *gorm.DB
}

func NewImportJobPostgreSQL(db *gorm.DB) repositories.ImportJobRepository {
	return &ImportJobPostgreSQL{db: db}
}

func (i *ImportJobPostgreSQL) Create(ctx context.Context, job *models.ImportJob) error {
	if err := i.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

func (i *ImportJobPostgreSQL) ListByDump(ctx context.Context, dumpID uint, opts repositories.ListOptions) ([]*models.ImportJob, int64, error) {
	query := i.db.WithContext(ctx).Model(&models.ImportJob{}).Where("dump_id = ?", dumpID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count import jobs: %w", err)
	}

	var jobs []*models.ImportJob
	query = applyPaginationAndSort(query, "", "desc", nil, "created_at", opts.Limit, opts.Offset)
	if err := query.Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list import jobs: %w", err)
	}
	return jobs, total, nil
}
