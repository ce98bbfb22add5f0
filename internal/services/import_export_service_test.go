package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SAP-F-2025/dump-practice-service/internal/events"
	"github.com/SAP-F-2025/dump-practice-service/internal/importer"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const importCSV = "question,optionA,optionB,optionC,optionD,correctAnswer\n" +
	"Capital of France?,Berlin,Madrid,Paris,Lyon,D\n" +
	"2 + 2 = ?,3,4,,,B\n"

func importDump() *models.Dump {
	return &models.Dump{
		ID:        1,
		Name:      "Geography Basics",
		CreatedBy: ownerID,
		Questions: datatypes.NewJSONSlice([]models.Question{{
			ID:             "q-france",
			Type:           models.MultipleChoiceSingle,
			Text:           "Capital of France?",
			Options:        map[string]string{"A": "Berlin", "B": "Madrid", "C": "Paris", "D": "Lyon"},
			CorrectAnswers: []string{"C"},
		}}),
	}
}

func newImportExportFixture(dump *models.Dump) (*MockRepository, *events.MockEventPublisher, ImportExportService) {
	repo := newMockRepository()
	repo.dumps.On("GetByID", mock.Anything, dump.ID).Return(dump, nil)
	repo.dumps.On("GetForUpdate", mock.Anything, dump.ID).Return(dump, nil)
	repo.imports.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewImportExportService(repo, NewAccessPolicy(repo), publisher, testLogger(), validator.New())
	return repo, publisher, svc
}

func csvUpload(policy string) *ImportRequest {
	return &ImportRequest{
		File:     strings.NewReader(importCSV),
		Filename: "questions.csv",
		Policy:   policy,
	}
}

func TestImportExportService_DetectReportsWithoutWriting(t *testing.T) {
	repo, publisher, svc := newImportExportFixture(importDump())

	resp, err := svc.Import(context.Background(), 1, csvUpload(""), identity(ownerID))
	require.NoError(t, err)

	assert.False(t, resp.Applied)
	assert.Equal(t, importer.PolicyDetect, resp.Policy)
	assert.Equal(t, 1, resp.Report.NewCount)
	assert.Len(t, resp.Report.Duplicates, 1)
	assert.Equal(t, 1, resp.ChangedCount)
	assert.Equal(t, 1, resp.QuestionCount)
	repo.dumps.AssertNotCalled(t, "UpdateQuestions", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, publisher.GetPublishedEvents())
	repo.imports.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(job *models.ImportJob) bool {
		return job.Status == models.ImportPendingDecision && job.DumpID == 1 && job.FileType == "csv" && job.DuplicateCount == 1
	}))
}

func TestImportExportService_ReplacePersists(t *testing.T) {
	repo, publisher, svc := newImportExportFixture(importDump())
	repo.dumps.On("UpdateQuestions", mock.Anything, uint(1), mock.MatchedBy(func(qs []models.Question) bool {
		return len(qs) == 2 && qs[0].ID == "q-france" && qs[0].CorrectAnswers[0] == "D"
	})).Return(nil)

	resp, err := svc.Import(context.Background(), 1, csvUpload("replace"), identity(ownerID))
	require.NoError(t, err)

	assert.True(t, resp.Applied)
	assert.Equal(t, 2, resp.QuestionCount)
	repo.dumps.AssertExpectations(t)
	repo.imports.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(job *models.ImportJob) bool {
		return job.Status == models.ImportApplied && job.Policy == "replace" && job.NewCount == 1 &&
			job.ChangedCount == 1 && job.QuestionCount == 2 && job.UserID == ownerID && job.ID != ""
	}))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventDumpImported, published[0].Type)
	payload := published[0].Data.(events.DumpImportedEvent)
	assert.Equal(t, "replace", payload.Policy)
	assert.Equal(t, 1, payload.Changed)
}

func TestImportExportService_ReadGrantCannotImport(t *testing.T) {
	repo, _, svc := newImportExportFixture(importDump())
	repo.dumps.On("GrantedPermissions", mock.Anything, uint(1), takerID).Return([]models.SharePermission{models.PermissionRead}, nil)

	_, err := svc.Import(context.Background(), 1, csvUpload("skip"), identity(takerID))

	assert.True(t, IsForbidden(err))
}

func TestImportExportService_RejectsBadInput(t *testing.T) {
	_, _, svc := newImportExportFixture(importDump())
	ctx := context.Background()

	_, err := svc.Import(ctx, 1, csvUpload("overwrite"), identity(ownerID))
	assert.True(t, IsValidation(err))

	_, err = svc.Import(ctx, 1, &ImportRequest{File: strings.NewReader("x"), Filename: "questions.pdf"}, identity(ownerID))
	assert.True(t, IsValidation(err))

	_, err = svc.Import(ctx, 1, &ImportRequest{Filename: "questions.csv"}, identity(ownerID))
	assert.True(t, IsValidation(err))

	noRows := &ImportRequest{File: strings.NewReader("question,answer\n,\n"), Filename: "q.csv", Policy: "skip"}
	_, err = svc.Import(ctx, 1, noRows, identity(ownerID))
	assert.True(t, IsValidation(err))
}

func TestImportExportService_ImportNewCreatesDump(t *testing.T) {
	repo, publisher, svc := newImportExportFixture(importDump())
	repo.dumps.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Dump) bool {
		return d.Name == "Fresh" && len(d.Questions) == 2 && d.CreatedBy == ownerID
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Dump).ID = 5
	}).Return(nil)

	resp, err := svc.ImportNew(context.Background(), &CreateDumpRequest{Name: " Fresh "}, csvUpload(""), identity(ownerID))
	require.NoError(t, err)

	assert.Equal(t, uint(5), resp.DumpID)
	assert.True(t, resp.Applied)
	assert.Equal(t, 2, resp.Report.NewCount)
	assert.Len(t, publisher.GetPublishedEvents(), 1)
}

func TestImportExportService_ImportLogFailureDoesNotFailImport(t *testing.T) {
	repo := newMockRepository()
	dump := importDump()
	repo.dumps.On("GetByID", mock.Anything, dump.ID).Return(dump, nil)
	repo.dumps.On("GetForUpdate", mock.Anything, dump.ID).Return(dump, nil)
	repo.dumps.On("UpdateQuestions", mock.Anything, uint(1), mock.Anything).Return(nil)
	repo.imports.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	svc := NewImportExportService(repo, NewAccessPolicy(repo), nil, testLogger(), validator.New())

	resp, err := svc.Import(context.Background(), 1, csvUpload("skip"), identity(ownerID))

	require.NoError(t, err)
	assert.True(t, resp.Applied)
}

func TestImportExportService_ListImports(t *testing.T) {
	repo, _, svc := newImportExportFixture(importDump())
	opts := repositories.ListOptions{Limit: 20}
	jobs := []*models.ImportJob{{ID: "job-1", DumpID: 1, Status: models.ImportApplied}}
	repo.imports.On("ListByDump", mock.Anything, uint(1), opts).Return(jobs, int64(1), nil)
	repo.dumps.On("GrantedPermissions", mock.Anything, uint(1), takerID).Return([]models.SharePermission{models.PermissionRead}, nil)

	resp, err := svc.ListImports(context.Background(), 1, opts, identity(ownerID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "job-1", resp.Imports[0].ID)

	_, err = svc.ListImports(context.Background(), 1, opts, identity(takerID))
	assert.True(t, IsForbidden(err))
}

func TestImportExportService_ExportCSV(t *testing.T) {
	_, _, svc := newImportExportFixture(importDump())

	file, err := svc.Export(context.Background(), 1, "csv", identity(ownerID))
	require.NoError(t, err)

	assert.Equal(t, "geography-basics.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "question,type,optionA"))
	assert.Contains(t, lines[1], "Capital of France?")
}

func TestImportExportService_ExportNeedsEdit(t *testing.T) {
	dump := importDump()
	dump.IsPublic = true
	repo, _, svc := newImportExportFixture(dump)
	repo.dumps.On("GrantedPermissions", mock.Anything, uint(1), takerID).Return([]models.SharePermission{}, nil)

	_, err := svc.Export(context.Background(), 1, "xlsx", identity(takerID))

	assert.True(t, IsForbidden(err))
}

func TestImportExportService_Template(t *testing.T) {
	_, _, svc := newImportExportFixture(importDump())

	file, err := svc.Template("")
	require.NoError(t, err)
	assert.Equal(t, "questions-template.xlsx", file.Filename)
	assert.NotEmpty(t, file.Data)

	_, err = svc.Template("pdf")
	assert.True(t, IsValidation(err))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "aws-saa-c03-part-1.csv", exportFilename("AWS  SAA-C03 (Part 1)", "csv"))
	assert.Equal(t, "dump.xlsx", exportFilename("Đề", "xlsx"))
}
