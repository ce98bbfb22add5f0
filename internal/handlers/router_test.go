package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===== TEST DOUBLES =====

type stubAuthService struct {
	services.AuthService
	identities map[string]*auth.Identity
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	if id, ok := s.identities[token]; ok {
		return id, nil
	}
	return nil, services.ErrUnauthorized
}

type mockQuizService struct {
	services.QuizService
	mock.Mock
}

func (m *mockQuizService) Get(ctx context.Context, sessionID string, caller *auth.Identity) (*services.SessionView, error) {
	args := m.Called(ctx, sessionID, caller)
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

func (m *mockQuizService) SelectOption(ctx context.Context, sessionID string, req *services.SelectOptionRequest, caller *auth.Identity) (*services.SessionView, error) {
	args := m.Called(ctx, sessionID, req, caller)
	view, _ := args.Get(0).(*services.SessionView)
	return view, args.Error(1)
}

type mockImportExportService struct {
	services.ImportExportService
	mock.Mock
}

func (m *mockImportExportService) Export(ctx context.Context, dumpID uint, format string, caller *auth.Identity) (*services.ExportFile, error) {
	args := m.Called(ctx, dumpID, format, caller)
	file, _ := args.Get(0).(*services.ExportFile)
	return file, args.Error(1)
}

func (m *mockImportExportService) Import(ctx context.Context, dumpID uint, req *services.ImportRequest, caller *auth.Identity) (*services.ImportResponse, error) {
	body, _ := io.ReadAll(req.File)
	args := m.Called(ctx, dumpID, req.Filename, req.Policy, string(body), caller)
	resp, _ := args.Get(0).(*services.ImportResponse)
	return resp, args.Error(1)
}

func (m *mockImportExportService) ListImports(ctx context.Context, dumpID uint, opts repositories.ListOptions, caller *auth.Identity) (*services.ImportJobListResponse, error) {
	args := m.Called(ctx, dumpID, opts, caller)
	resp, _ := args.Get(0).(*services.ImportJobListResponse)
	return resp, args.Error(1)
}

type stubServiceManager struct {
	services.ServiceManager
	auth         services.AuthService
	quiz         services.QuizService
	importExport services.ImportExportService
}

func (m *stubServiceManager) Auth() services.AuthService                 { return m.auth }
func (m *stubServiceManager) Quiz() services.QuizService                 { return m.quiz }
func (m *stubServiceManager) ImportExport() services.ImportExportService { return m.importExport }
func (m *stubServiceManager) Dump() services.DumpService                 { return nil }
func (m *stubServiceManager) History() services.HistoryService           { return nil }
func (m *stubServiceManager) Group() services.GroupService               { return nil }
func (m *stubServiceManager) Category() services.CategoryService         { return nil }
func (m *stubServiceManager) User() services.UserService                 { return nil }

var (
	userIdentity  = &auth.Identity{UserID: "u-1", Username: "alice", Role: models.RoleUser}
	adminIdentity = &auth.Identity{UserID: "u-admin", Username: "root", Role: models.RoleAdmin}
)

type routerFixture struct {
	router       *gin.Engine
	quiz         *mockQuizService
	importExport *mockImportExportService
}

func newRouterFixture(checks map[string]HealthCheck) *routerFixture {
	f := &routerFixture{
		quiz:         &mockQuizService{},
		importExport: &mockImportExportService{},
	}
	manager := &stubServiceManager{
		auth: &stubAuthService{identities: map[string]*auth.Identity{
			"user-token":  userIdentity,
			"admin-token": adminIdentity,
		}},
		quiz:         f.quiz,
		importExport: f.importExport,
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.router = NewHandlerManager(manager, logger, checks).NewRouter(nil)
	return f
}

func (f *routerFixture) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// ===== TESTS =====

func TestHealth(t *testing.T) {
	f := newRouterFixture(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})

	w := f.do(http.MethodGet, "/health", "", nil, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestAuthMiddleware(t *testing.T) {
	f := newRouterFixture(nil)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/sessions/s-1", "", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/sessions/s-1", "forged", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/admin/users", "user-token", nil, "").Code)
}

func TestQuizRoutes_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "missing session", err: services.ErrSessionNotFound, want: http.StatusNotFound},
		{name: "concurrent request", err: services.ErrSessionBusy, want: http.StatusConflict},
		{name: "bad index", err: services.NewValidationError("index", "out of range", 9), want: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("redis down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(nil)
			f.quiz.On("Get", mock.Anything, "s-1", userIdentity).Return(nil, tt.err)

			w := f.do(http.MethodGet, "/api/v1/sessions/s-1", "user-token", nil, "")

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestQuizRoutes_SelectOption(t *testing.T) {
	f := newRouterFixture(nil)
	f.quiz.On("SelectOption", mock.Anything, "s-1", &services.SelectOptionRequest{Index: 1, Key: "C"}, userIdentity).
		Return(&services.SessionView{ID: "s-1", CurrentIndex: 1}, nil)

	w := f.do(http.MethodPost, "/api/v1/sessions/s-1/select", "user-token",
		strings.NewReader(`{"index":1,"key":"C"}`), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	var view services.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "s-1", view.ID)

	w = f.do(http.MethodPost, "/api/v1/sessions/s-1/select", "user-token",
		strings.NewReader(`{"index":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDumpRoutes_Export(t *testing.T) {
	f := newRouterFixture(nil)
	f.importExport.On("Export", mock.Anything, uint(4), "csv", userIdentity).Return(&services.ExportFile{
		Filename:    "geography.csv",
		ContentType: "text/csv",
		Data:        []byte("question\n"),
	}, nil)

	w := f.do(http.MethodGet, "/api/v1/dumps/4/export?format=csv", "user-token", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="geography.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "question\n", w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/dumps/abc/export", "user-token", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDumpRoutes_ListImports(t *testing.T) {
	f := newRouterFixture(nil)
	f.importExport.On("ListImports", mock.Anything, uint(4), repositories.ListOptions{Limit: 10, Offset: 10}, userIdentity).
		Return(&services.ImportJobListResponse{Total: 11, Limit: 10, Offset: 10}, nil)

	w := f.do(http.MethodGet, "/api/v1/dumps/4/imports?page=2&size=10", "user-token", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":11`)
	f.importExport.AssertExpectations(t)
}

func TestDumpRoutes_ImportMultipart(t *testing.T) {
	f := newRouterFixture(nil)
	f.importExport.On("Import", mock.Anything, uint(4), "questions.csv", "replace", "question,answer\nQ,A\n", userIdentity).
		Return(&services.ImportResponse{DumpID: 4, Applied: true}, nil)

	body := &strings.Builder{}
	body.WriteString("--XYZ\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"policy\"\r\n\r\nreplace\r\n")
	body.WriteString("--XYZ\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"questions.csv\"\r\n")
	body.WriteString("Content-Type: text/csv\r\n\r\n")
	body.WriteString("question,answer\nQ,A\n\r\n")
	body.WriteString("--XYZ--\r\n")

	w := f.do(http.MethodPost, "/api/v1/dumps/4/import", "user-token",
		strings.NewReader(body.String()), "multipart/form-data; boundary=XYZ")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp services.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)

	w = f.do(http.MethodPost, "/api/v1/dumps/4/import", "user-token",
		strings.NewReader("--XYZ--\r\n"), "multipart/form-data; boundary=XYZ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
