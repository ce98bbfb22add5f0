package services

import (
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/importer"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/quiz"
)

// ===== DUMP DTOs =====

type CreateDumpRequest struct {
	Name                  string            `json:"name" validate:"required,min=1,max=200"`
	Description           *string           `json:"description" validate:"omitempty,max=1000"`
	IsPublic              bool              `json:"is_public"`
	TimeLimit             int               `json:"time_limit" validate:"min=0,max=600"`
	ShowAnswerImmediately bool              `json:"show_answer_immediately"`
	CategoryID            *uint             `json:"category_id"`
	Questions             []models.Question `json:"questions" validate:"omitempty,dive"`
}

type UpdateDumpRequest struct {
	Name                  *string            `json:"name" validate:"omitempty,min=1,max=200"`
	Description           *string            `json:"description" validate:"omitempty,max=1000"`
	IsPublic              *bool              `json:"is_public"`
	TimeLimit             *int               `json:"time_limit" validate:"omitempty,min=0,max=600"`
	ShowAnswerImmediately *bool              `json:"show_answer_immediately"`
	CategoryID            *uint              `json:"category_id"`
	Questions             *[]models.Question `json:"questions" validate:"omitempty"`
}

type ShareDumpRequest struct {
	GroupID    uint                   `json:"group_id" validate:"required"`
	Permission models.SharePermission `json:"permission" validate:"required,share_permission"`
}

type DumpResponse struct {
	ID                    uint             `json:"id"`
	Name                  string           `json:"name"`
	Description           *string          `json:"description"`
	IsPublic              bool             `json:"is_public"`
	TimeLimit             int              `json:"time_limit"`
	ShowAnswerImmediately bool             `json:"show_answer_immediately"`
	CategoryID            *uint            `json:"category_id"`
	Category              *models.Category `json:"category,omitempty"`
	CreatedBy             string           `json:"created_by"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	QuestionCount         int              `json:"question_count"`

	Questions []models.Question `json:"questions,omitempty" copier:"-"`
	CanEdit   bool              `json:"can_edit" copier:"-"`
}

type DumpListResponse struct {
	Dumps  []DumpResponse `json:"dumps"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ===== QUIZ DTOs =====

type SelectOptionRequest struct {
	Index int    `json:"index" validate:"min=0"`
	Key   string `json:"key" validate:"required,option_key"`
}

type TextAnswerRequest struct {
	Index int    `json:"index" validate:"min=0"`
	Value string `json:"value"`
}

type NavigateAction string

const (
	NavigateNext     NavigateAction = "next"
	NavigatePrevious NavigateAction = "previous"
	NavigateJump     NavigateAction = "jump"
)

type NavigateRequest struct {
	Action NavigateAction `json:"action" validate:"required,oneof=next previous jump"`
	Index  *int           `json:"index" validate:"omitempty,min=0"` // required for jump
}

// QuestionView is a question as shown to the quiz taker. Answer keys are
// only present while correctness is revealed.
type QuestionView struct {
	ID              string              `json:"id"`
	Type            models.QuestionType `json:"type"`
	Text            string              `json:"text"`
	Options         map[string]string   `json:"options,omitempty"`
	CorrectAnswers  []string            `json:"correct_answers,omitempty"`
	AcceptedAnswers []string            `json:"accepted_answers,omitempty"`
	Explanation     string              `json:"explanation,omitempty"`
}

type AnswerView struct {
	Selected  []string `json:"selected,omitempty"`
	Text      string   `json:"text,omitempty"`
	HTML      string   `json:"html,omitempty"`
	IsCorrect *bool    `json:"is_correct,omitempty"`
}

type SessionView struct {
	ID            string        `json:"id"`
	DumpID        uint          `json:"dump_id"`
	DumpName      string        `json:"dump_name"`
	Mode          quiz.Mode     `json:"mode"`
	CurrentIndex  int           `json:"current_index"`
	Question      QuestionView  `json:"question"`
	Answer        *AnswerView   `json:"answer,omitempty"`
	Statuses      []quiz.Status `json:"statuses"`
	Progress      quiz.Progress `json:"progress"`
	TimeRemaining *int          `json:"time_remaining,omitempty"`
	Deadline      *time.Time    `json:"deadline,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Finished      bool          `json:"finished"`
	TimedOut      bool          `json:"timed_out"`
	FinishedAt    *time.Time    `json:"finished_at,omitempty"`
	HistoryID     *uint         `json:"history_id,omitempty"`
}

type SessionSummary struct {
	ID            string     `json:"id"`
	DumpID        uint       `json:"dump_id"`
	DumpName      string     `json:"dump_name"`
	StartedAt     time.Time  `json:"started_at"`
	Answered      int        `json:"answered"`
	Total         int        `json:"total"`
	Finished      bool       `json:"finished"`
	TimeRemaining *int       `json:"time_remaining,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}

// SessionRecord is the persisted form of a session
type SessionRecord struct {
	quiz.Session
	HistoryID *uint `json:"history_id,omitempty"`
}

// ===== IMPORT / EXPORT DTOs =====

type ImportResponse struct {
	DumpID        uint            `json:"dump_id"`
	Filename      string          `json:"filename"`
	Policy        importer.Policy `json:"policy"`
	Applied       bool            `json:"applied"`
	Report        importer.Report `json:"report"`
	ChangedCount  int             `json:"changed_count"`
	QuestionCount int             `json:"question_count"`
}

type ImportJobListResponse struct {
	Imports []*models.ImportJob `json:"imports"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== HISTORY DTOs =====

type HistoryResponse struct {
	ID          uint      `json:"id"`
	DumpID      uint      `json:"dump_id"`
	DumpName    string    `json:"dump_name"`
	SessionID   string    `json:"session_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage" copier:"-"`
	TimedOut    bool      `json:"timed_out"`
	CompletedAt time.Time `json:"completed_at"`
}

type HistoryItem struct {
	Index    int                  `json:"index"`
	Question models.Question      `json:"question"`
	Answer   *models.AnswerRecord `json:"answer,omitempty"`
	Status   quiz.Status          `json:"status"`
}

type HistoryDetail struct {
	HistoryResponse
	Items []HistoryItem `json:"items"`
}

type HistoryListResponse struct {
	History []HistoryResponse `json:"history"`
	Total   int64             `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// ===== GROUP / CATEGORY DTOs =====

type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// AddMemberRequest identifies the new member by id or by username
type AddMemberRequest struct {
	UserID   string `json:"user_id" validate:"required_without=Username"`
	Username string `json:"username" validate:"required_without=UserID"`
}

type GroupListResponse struct {
	Groups []*models.Group `json:"groups"`
	Total  int64           `json:"total"`
}

type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// ===== USER / AUTH DTOs =====

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,user_role"`
}

type UserListResponse struct {
	Users  []*models.User `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}
