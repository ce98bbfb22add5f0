package services

import (
	"log/slog"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/events"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
)

// ServiceManager exposes every service built over one repository
type ServiceManager interface {
	Auth() AuthService
	Dump() DumpService
	Quiz() QuizService
	ImportExport() ImportExportService
	History() HistoryService
	Group() GroupService
	Category() CategoryService
	User() UserService
}

// Dependencies collects what NewServiceManager needs
type Dependencies struct {
	Repo      repositories.Repository
	Sessions  SessionStore
	Publisher events.EventPublisher
	Verifier  auth.Verifier
	Issuer    *auth.LocalIssuer
	Logger    *slog.Logger
	Validator *validator.Validator
}

type serviceManager struct {
	auth         AuthService
	dump         DumpService
	quiz         QuizService
	importExport ImportExportService
	history      HistoryService
	group        GroupService
	category     CategoryService
	user         UserService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	policy := NewAccessPolicy(deps.Repo)

	return &serviceManager{
		auth:         NewAuthService(deps.Repo, deps.Verifier, deps.Issuer, deps.Logger, deps.Validator),
		dump:         NewDumpService(deps.Repo, policy, deps.Logger, deps.Validator),
		quiz:         NewQuizService(deps.Repo, deps.Sessions, policy, deps.Publisher, deps.Logger, deps.Validator),
		importExport: NewImportExportService(deps.Repo, policy, deps.Publisher, deps.Logger, deps.Validator),
		history:      NewHistoryService(deps.Repo, deps.Logger),
		group:        NewGroupService(deps.Repo, deps.Logger, deps.Validator),
		category:     NewCategoryService(deps.Repo, deps.Logger, deps.Validator),
		user:         NewUserService(deps.Repo, deps.Logger, deps.Validator),
	}
}

func (m *serviceManager) Auth() AuthService                 { return m.auth }
func (m *serviceManager) Dump() DumpService                 { return m.dump }
func (m *serviceManager) Quiz() QuizService                 { return m.quiz }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
func (m *serviceManager) History() HistoryService           { return m.history }
func (m *serviceManager) Group() GroupService               { return m.group }
func (m *serviceManager) Category() CategoryService         { return m.category }
func (m *serviceManager) User() UserService                 { return m.user }
