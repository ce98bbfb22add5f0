package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type DumpService interface {
	Create(ctx context.Context, req *CreateDumpRequest, caller *auth.Identity) (*DumpResponse, error)
	Get(ctx context.Context, id uint, caller *auth.Identity) (*DumpResponse, error)
	List(ctx context.Context, filters repositories.DumpFilters, caller *auth.Identity) (*DumpListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateDumpRequest, caller *auth.Identity) (*DumpResponse, error)
	Delete(ctx context.Context, id uint, caller *auth.Identity) error

	// Question authoring
	AddQuestion(ctx context.Context, id uint, question *models.Question, caller *auth.Identity) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id uint, questionID string, question *models.Question, caller *auth.Identity) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id uint, questionID string, caller *auth.Identity) error

	// Sharing
	Share(ctx context.Context, id uint, req *ShareDumpRequest, caller *auth.Identity) (*models.DumpShare, error)
	Unshare(ctx context.Context, id, groupID uint, caller *auth.Identity) error
	GetShares(ctx context.Context, id uint, caller *auth.Identity) ([]*models.DumpShare, error)
}

type QuizService interface {
	Start(ctx context.Context, dumpID uint, caller *auth.Identity) (*SessionView, error)
	Get(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error)
	ListActive(ctx context.Context, caller *auth.Identity) ([]*SessionSummary, error)

	SelectOption(ctx context.Context, sessionID string, req *SelectOptionRequest, caller *auth.Identity) (*SessionView, error)
	SetShortAnswer(ctx context.Context, sessionID string, req *TextAnswerRequest, caller *auth.Identity) (*SessionView, error)
	SetHTMLField(ctx context.Context, sessionID string, req *TextAnswerRequest, caller *auth.Identity) (*SessionView, error)
	Navigate(ctx context.Context, sessionID string, req *NavigateRequest, caller *auth.Identity) (*SessionView, error)
	Finish(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error)
	EnterReview(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error)
	ExitReview(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error)
	Abandon(ctx context.Context, sessionID string, caller *auth.Identity) error

	// SweepExpired finishes every timed session whose countdown has run out
	SweepExpired(ctx context.Context) (int, error)
	RunSweeper(ctx context.Context, interval time.Duration)
}

type ImportExportService interface {
	Import(ctx context.Context, dumpID uint, req *ImportRequest, caller *auth.Identity) (*ImportResponse, error)
	ImportNew(ctx context.Context, req *CreateDumpRequest, upload *ImportRequest, caller *auth.Identity) (*ImportResponse, error)
	Export(ctx context.Context, dumpID uint, format string, caller *auth.Identity) (*ExportFile, error)
	Template(format string) (*ExportFile, error)
	ListImports(ctx context.Context, dumpID uint, opts repositories.ListOptions, caller *auth.Identity) (*ImportJobListResponse, error)
}

type HistoryService interface {
	List(ctx context.Context, filters repositories.HistoryFilters, caller *auth.Identity) (*HistoryListResponse, error)
	Get(ctx context.Context, id uint, caller *auth.Identity) (*HistoryDetail, error)
	Delete(ctx context.Context, id uint, caller *auth.Identity) error
}

type GroupService interface {
	Create(ctx context.Context, req *CreateGroupRequest, caller *auth.Identity) (*models.Group, error)
	Get(ctx context.Context, id uint, caller *auth.Identity) (*models.Group, error)
	ListMine(ctx context.Context, caller *auth.Identity) ([]*models.Group, error)
	ListAll(ctx context.Context, opts repositories.ListOptions, caller *auth.Identity) (*GroupListResponse, error)
	AddMember(ctx context.Context, id uint, req *AddMemberRequest, caller *auth.Identity) (*models.GroupMember, error)
	RemoveMember(ctx context.Context, id uint, userID string, caller *auth.Identity) error
	Delete(ctx context.Context, id uint, caller *auth.Identity) error
}

type CategoryService interface {
	Create(ctx context.Context, req *CategoryRequest, caller *auth.Identity) (*models.Category, error)
	Get(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, id uint, req *CategoryRequest, caller *auth.Identity) (*models.Category, error)
	Delete(ctx context.Context, id uint, caller *auth.Identity) error
}

type UserService interface {
	Get(ctx context.Context, id string, caller *auth.Identity) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters, caller *auth.Identity) (*UserListResponse, error)
	UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest, caller *auth.Identity) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool, caller *auth.Identity) (*models.User, error)
	Delete(ctx context.Context, id string, caller *auth.Identity) error
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error)
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
	Me(ctx context.Context, caller *auth.Identity) (*models.User, error)
}

// SessionStore persists quiz sessions between requests
type SessionStore interface {
	Save(ctx context.Context, session *SessionRecord) error
	Load(ctx context.Context, userID, sessionID string) (*SessionRecord, error)
	Delete(ctx context.Context, userID, sessionID string) error
	ListByUser(ctx context.Context, userID string) ([]*SessionRecord, error)
	ListAll(ctx context.Context) ([]*SessionRecord, error)
	// Lock serializes mutations of one session; the returned func releases it
	Lock(ctx context.Context, sessionID string) (func(context.Context) error, error)
}

// Uploaded import file
type ImportRequest struct {
	File     io.Reader
	Filename string
	Format   string
	Policy   string `validate:"omitempty,merge_policy"`
}
