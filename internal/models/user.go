package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:255"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FullName     string   `json:"full_name" gorm:"size:100"`
	PasswordHash string   `json:"-" gorm:"size:255"`
	Role         UserRole `json:"role" gorm:"default:user;size:20"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
