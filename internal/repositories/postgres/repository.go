package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository wires every gorm-backed repository to one *gorm.DB
type Repository struct {
	db       *gorm.DB
	dump     repositories.DumpRepository
	history  repositories.HistoryRepository
	user     repositories.UserRepository
	group    repositories.GroupRepository
	category repositories.CategoryRepository
	imports  repositories.ImportJobRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:       db,
		dump:     NewDumpPostgreSQL(db),
		history:  NewHistoryPostgreSQL(db),
		user:     NewUserPostgreSQL(db),
		group:    NewGroupPostgreSQL(db),
		category: NewCategoryPostgreSQL(db),
		imports:  NewImportJobPostgreSQL(db),
	}
}

func (r *Repository) Dump() repositories.DumpRepository           { return r.dump }
func (r *Repository) History() repositories.HistoryRepository     { return r.history }
func (r *Repository) User() repositories.UserRepository           { return r.user }
func (r *Repository) Group() repositories.GroupRepository         { return r.group }
func (r *Repository) Category() repositories.CategoryRepository   { return r.category }
func (r *Repository) ImportJob() repositories.ImportJobRepository { return r.imports }

// WithTransaction runs fn with a Repository bound to a single transaction
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
