package models

import "time"

type Group struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedBy   string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Members []GroupMember `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	GroupID  uint      `json:"group_id" gorm:"primaryKey"`
	UserID   string    `json:"user_id" gorm:"primaryKey;size:255"`
	JoinedAt time.Time `json:"joined_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
