package models

import (
	"time"
)

type ImportJobStatus string

const (
	ImportApplied         ImportJobStatus = "applied"
	ImportPendingDecision ImportJobStatus = "pending_decision"
)

// ImportJob records one spreadsheet import into a dump. Detect runs that
// stopped on duplicates are kept with ImportPendingDecision.
type ImportJob struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"` // UUID
	DumpID uint   `json:"dump_id" gorm:"not null;index"`
	UserID string `json:"user_id" gorm:"not null;index;size:255"`

	// File info
	FileName string `json:"file_name" gorm:"not null;size:255"`
	FileType string `json:"file_type" gorm:"not null;size:20"` // xlsx, csv

	Policy string          `json:"policy" gorm:"not null;size:20"`
	Status ImportJobStatus `json:"status" gorm:"not null;size:20;index"`

	// Reconciliation counts
	TotalRows      int `json:"total_rows"`
	SkippedRows    int `json:"skipped_rows"`
	NewCount       int `json:"new_count"`
	DuplicateCount int `json:"duplicate_count"`
	ChangedCount   int `json:"changed_count"`
	QuestionCount  int `json:"question_count"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
