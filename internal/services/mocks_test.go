package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository is a mock implementation of the repository aggregate.
// Transactions run the callback against the same mocks.
type MockRepository struct {
	dumps      *MockDumpRepository
	history    *MockHistoryRepository
	users      *MockUserRepository
	groups     *MockGroupRepository
	categories *MockCategoryRepository
	imports    *MockImportJobRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		dumps:      &MockDumpRepository{},
		history:    &MockHistoryRepository{},
		users:      &MockUserRepository{},
		groups:     &MockGroupRepository{},
		categories: &MockCategoryRepository{},
		imports:    &MockImportJobRepository{},
	}
}

func (m *MockRepository) Dump() repositories.DumpRepository           { return m.dumps }
func (m *MockRepository) History() repositories.HistoryRepository     { return m.history }
func (m *MockRepository) User() repositories.UserRepository           { return m.users }
func (m *MockRepository) Group() repositories.GroupRepository         { return m.groups }
func (m *MockRepository) Category() repositories.CategoryRepository   { return m.categories }
func (m *MockRepository) ImportJob() repositories.ImportJobRepository { return m.imports }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// MockDumpRepository is a mock implementation of DumpRepository
type MockDumpRepository struct {
	mock.Mock
}

func (m *MockDumpRepository) Create(ctx context.Context, dump *models.Dump) error {
	args := m.Called(ctx, dump)
	return args.Error(0)
}

func (m *MockDumpRepository) GetByID(ctx context.Context, id uint) (*models.Dump, error) {
	args := m.Called(ctx, id)
	dump, _ := args.Get(0).(*models.Dump)
	return dump, args.Error(1)
}

func (m *MockDumpRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.Dump, error) {
	args := m.Called(ctx, id)
	dump, _ := args.Get(0).(*models.Dump)
	return dump, args.Error(1)
}

func (m *MockDumpRepository) GetForUpdate(ctx context.Context, id uint) (*models.Dump, error) {
	args := m.Called(ctx, id)
	dump, _ := args.Get(0).(*models.Dump)
	return dump, args.Error(1)
}

func (m *MockDumpRepository) Update(ctx context.Context, dump *models.Dump) error {
	args := m.Called(ctx, dump)
	return args.Error(0)
}

func (m *MockDumpRepository) UpdateQuestions(ctx context.Context, id uint, questions []models.Question) error {
	args := m.Called(ctx, id, questions)
	return args.Error(0)
}

func (m *MockDumpRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDumpRepository) ListForUser(ctx context.Context, userID string, filters repositories.DumpFilters) ([]*models.Dump, int64, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*models.Dump), args.Get(1).(int64), args.Error(2)
}

func (m *MockDumpRepository) List(ctx context.Context, filters repositories.DumpFilters) ([]*models.Dump, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Dump), args.Get(1).(int64), args.Error(2)
}

func (m *MockDumpRepository) Share(ctx context.Context, share *models.DumpShare) error {
	args := m.Called(ctx, share)
	return args.Error(0)
}

func (m *MockDumpRepository) Unshare(ctx context.Context, dumpID, groupID uint) error {
	args := m.Called(ctx, dumpID, groupID)
	return args.Error(0)
}

func (m *MockDumpRepository) GetShares(ctx context.Context, dumpID uint) ([]*models.DumpShare, error) {
	args := m.Called(ctx, dumpID)
	return args.Get(0).([]*models.DumpShare), args.Error(1)
}

func (m *MockDumpRepository) GrantedPermissions(ctx context.Context, dumpID uint, userID string) ([]models.SharePermission, error) {
	args := m.Called(ctx, dumpID, userID)
	perms, _ := args.Get(0).([]models.SharePermission)
	return perms, args.Error(1)
}

// MockHistoryRepository is a mock implementation of HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, history *models.AttemptHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockHistoryRepository) GetByID(ctx context.Context, id uint) (*models.AttemptHistory, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*models.AttemptHistory)
	return h, args.Error(1)
}

func (m *MockHistoryRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.AttemptHistory, error) {
	args := m.Called(ctx, sessionID)
	h, _ := args.Get(0).(*models.AttemptHistory)
	return h, args.Error(1)
}

func (m *MockHistoryRepository) ListByUser(ctx context.Context, userID string, filters repositories.HistoryFilters) ([]*models.AttemptHistory, int64, error) {
	args := m.Called(ctx, userID, filters)
	return args.Get(0).([]*models.AttemptHistory), args.Get(1).(int64), args.Error(2)
}

func (m *MockHistoryRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error {
	args := m.Called(ctx, id, loginTime)
	return args.Error(0)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*models.Group)
	return g, args.Error(1)
}

func (m *MockGroupRepository) GetByIDWithMembers(ctx context.Context, id uint) (*models.Group, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*models.Group)
	return g, args.Error(1)
}

func (m *MockGroupRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGroupRepository) List(ctx context.Context, opts repositories.ListOptions) ([]*models.Group, int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).([]*models.Group), args.Get(1).(int64), args.Error(2)
}

func (m *MockGroupRepository) ListByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Group), args.Error(1)
}

func (m *MockGroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockGroupRepository) RemoveMember(ctx context.Context, groupID uint, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MockGroupRepository) IsMember(ctx context.Context, groupID uint, userID string) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, name string, excludeID *uint) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockImportJobRepository is a mock implementation of ImportJobRepository
type MockImportJobRepository struct {
	mock.Mock
}

func (m *MockImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockImportJobRepository) ListByDump(ctx context.Context, dumpID uint, opts repositories.ListOptions) ([]*models.ImportJob, int64, error) {
	args := m.Called(ctx, dumpID, opts)
	jobs, _ := args.Get(0).([]*models.ImportJob)
	return jobs, args.Get(1).(int64), args.Error(2)
}

// memorySessionStore keeps sessions in a map. Records are copied in and
// out like a remote store would.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]SessionRecord
	locked   map[string]bool
	saves    int
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{
		sessions: make(map[string]SessionRecord),
		locked:   make(map[string]bool),
	}
}

func (m *memorySessionStore) Save(ctx context.Context, session *SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(session.UserID, session.ID)] = copyRecord(session)
	m.saves++
	return nil
}

func (m *memorySessionStore) Load(ctx context.Context, userID, sessionID string) (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.sessions[sessionKey(userID, sessionID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := copyRecord(&record)
	return &out, nil
}

func (m *memorySessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(userID, sessionID))
	return nil
}

func (m *memorySessionStore) ListByUser(ctx context.Context, userID string) ([]*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SessionRecord
	for _, record := range m.sessions {
		if record.UserID == userID {
			r := copyRecord(&record)
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memorySessionStore) ListAll(ctx context.Context) ([]*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SessionRecord
	for _, record := range m.sessions {
		r := copyRecord(&record)
		out = append(out, &r)
	}
	return out, nil
}

func (m *memorySessionStore) Lock(ctx context.Context, sessionID string) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[sessionID] {
		return nil, ErrSessionBusy
	}
	m.locked[sessionID] = true
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locked, sessionID)
		return nil
	}, nil
}

func copyRecord(r *SessionRecord) SessionRecord {
	out := *r
	out.Answers = make(map[int]models.AnswerRecord, len(r.Answers))
	for k, v := range r.Answers {
		v.Selected = append([]string(nil), v.Selected...)
		out.Answers[k] = v
	}
	if r.TimeRemaining != nil {
		remaining := *r.TimeRemaining
		out.TimeRemaining = &remaining
	}
	if r.HistoryID != nil {
		id := *r.HistoryID
		out.HistoryID = &id
	}
	return out
}
