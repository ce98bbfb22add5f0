package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SharePermission string

const (
	PermissionRead SharePermission = "read"
	PermissionEdit SharePermission = "edit"
)

// Dump is a named, ordered question set with its sharing configuration.
type Dump struct {
	ID                    uint                          `json:"id" gorm:"primaryKey"`
	Name                  string                        `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description           *string                       `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Questions             datatypes.JSONSlice[Question] `json:"questions" gorm:"type:jsonb"`
	IsPublic              bool                          `json:"is_public" gorm:"default:false;index"`
	TimeLimit             int                           `json:"time_limit" gorm:"default:0" validate:"min=0,max=600"` // minutes, 0 = untimed
	ShowAnswerImmediately bool                          `json:"show_answer_immediately" gorm:"default:false"`
	CategoryID            *uint                         `json:"category_id" gorm:"index"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Category *Category   `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Shares   []DumpShare `json:"shares,omitempty" gorm:"foreignKey:DumpID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
}

func (Dump) TableName() string {
	return "dumps"
}

// DumpShare grants a group read or edit access to a dump.
type DumpShare struct {
	DumpID     uint            `json:"dump_id" gorm:"primaryKey"`
	GroupID    uint            `json:"group_id" gorm:"primaryKey"`
	Permission SharePermission `json:"permission" gorm:"not null;size:10;default:read"`
	SharedBy   string          `json:"shared_by" gorm:"size:255"`
	SharedAt   time.Time       `json:"shared_at"`

	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

func (DumpShare) TableName() string {
	return "dump_shares"
}

type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null;size:100" validate:"required,min=1,max=100"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}
