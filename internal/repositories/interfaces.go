package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"gorm.io/gorm"
)

// Repository is the aggregate of all repositories sharing one connection
// or one transaction.
type Repository interface {
	Dump() DumpRepository
	History() HistoryRepository
	User() UserRepository
	Group() GroupRepository
	Category() CategoryRepository
	ImportJob() ImportJobRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is a missing-record error from the store
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

// DumpScope narrows a dump listing for the calling user
type DumpScope string

const (
	ScopeAccessible DumpScope = ""       // own, public and shared
	ScopeMine       DumpScope = "mine"   // created by the caller
	ScopePublic     DumpScope = "public" // public dumps of anyone
	ScopeShared     DumpScope = "shared" // granted through a group
)

type DumpFilters struct {
	Scope      DumpScope `json:"scope" form:"scope"`
	Search     string    `json:"search" form:"search"`
	CategoryID *uint     `json:"category_id" form:"category_id"`
	Limit      int       `json:"limit" form:"limit"`
	Offset     int       `json:"offset" form:"offset"`
	SortBy     string    `json:"sort_by" form:"sort_by"`       // "created_at", "updated_at", "name"
	SortOrder  string    `json:"sort_order" form:"sort_order"` // "asc", "desc"
}

type HistoryFilters struct {
	DumpID    *uint      `json:"dump_id" form:"dump_id"`
	DateFrom  *time.Time `json:"date_from" form:"date_from"`
	DateTo    *time.Time `json:"date_to" form:"date_to"`
	Limit     int        `json:"limit" form:"limit"`
	Offset    int        `json:"offset" form:"offset"`
	SortBy    string     `json:"sort_by" form:"sort_by"` // "completed_at", "score"
	SortOrder string     `json:"sort_order" form:"sort_order"`
}

type UserFilters struct {
	Role      *models.UserRole `json:"role" form:"role"`
	IsActive  *bool            `json:"is_active" form:"is_active"`
	Search    string           `json:"search" form:"search"`
	Limit     int              `json:"limit" form:"limit"`
	Offset    int              `json:"offset" form:"offset"`
	SortBy    string           `json:"sort_by" form:"sort_by"` // "created_at", "username"
	SortOrder string           `json:"sort_order" form:"sort_order"`
}

type ListOptions struct {
	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}
