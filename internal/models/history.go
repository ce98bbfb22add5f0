package models

import (
	"time"

	"gorm.io/datatypes"
)

// AttemptHistory is the immutable record of one completed quiz.
type AttemptHistory struct {
	ID          uint                                     `json:"id" gorm:"primaryKey"`
	UserID      string                                   `json:"user_id" gorm:"not null;index;size:255"`
	DumpID      uint                                     `json:"dump_id" gorm:"not null;index"`
	DumpName    string                                   `json:"dump_name" gorm:"not null;size:200"`
	SessionID   string                                   `json:"session_id" gorm:"uniqueIndex;size:36"`
	Score       int                                      `json:"score"`
	Total       int                                      `json:"total"`
	Answers     datatypes.JSONType[map[int]AnswerRecord] `json:"answers" gorm:"type:jsonb"`
	Questions   datatypes.JSONSlice[Question]            `json:"questions" gorm:"type:jsonb"`
	TimedOut    bool                                     `json:"timed_out"`
	CompletedAt time.Time                                `json:"completed_at" gorm:"index"`
}

func (AttemptHistory) TableName() string {
	return "attempt_history"
}

// Percentage returns the score as a 0-100 value.
func (h AttemptHistory) Percentage() float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Score) * 100 / float64(h.Total)
}
