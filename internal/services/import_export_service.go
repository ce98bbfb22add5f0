package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/events"
	"github.com/SAP-F-2025/dump-practice-service/internal/importer"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/spreadsheet"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type importExportService struct {
	repo       repositories.Repository
	policy     *AccessPolicy
	reconciler *importer.Reconciler
	publisher  events.EventPublisher
	validator  *validator.Validator
	logger     *ServiceLogger
}

func NewImportExportService(repo repositories.Repository, policy *AccessPolicy, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		repo:       repo,
		policy:     policy,
		reconciler: importer.NewReconciler(),
		publisher:  publisher,
		validator:  validator,
		logger:     NewServiceLogger(logger, "import_export"),
	}
}

// ===== IMPORT =====

// Import reconciles an uploaded file into an existing dump. With the detect
// policy and duplicates present nothing is written and the report is
// returned for the caller to pick a policy.
func (s *importExportService) Import(ctx context.Context, dumpID uint, req *ImportRequest, caller *auth.Identity) (resp *ImportResponse, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "import_questions", callerID(caller), fmt.Sprint(dumpID), start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	policy, err := importer.ParsePolicy(req.Policy)
	if err != nil {
		return nil, err
	}
	rows, err := readUpload(req)
	if err != nil {
		return nil, err
	}

	dump, err := loadDump(ctx, s.repo, dumpID)
	if err != nil {
		return nil, err
	}
	canEdit, err := s.policy.CanEdit(ctx, dump, caller)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(callerID(caller), dumpID, "dump", "import into", "no edit permission")
	}

	var result *importer.Result
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		locked, err := tx.Dump().GetForUpdate(ctx, dumpID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrDumpNotFound
			}
			return fmt.Errorf("failed to lock dump: %w", err)
		}

		result, err = s.reconciler.Reconcile(policy, rows, []models.Question(locked.Questions))
		if err != nil {
			return err
		}
		if !result.Applied {
			return nil
		}
		if err := tx.Dump().UpdateQuestions(ctx, dumpID, result.Merged); err != nil {
			return fmt.Errorf("failed to save imported questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp = &ImportResponse{
		DumpID:        dumpID,
		Filename:      req.Filename,
		Policy:        result.Policy,
		Applied:       result.Applied,
		Report:        result.Report,
		ChangedCount:  result.Report.ChangedCount(),
		QuestionCount: len(dump.Questions),
	}
	if result.Applied {
		resp.QuestionCount = len(result.Merged)
		s.publishImported(ctx, resp, caller)
	}
	s.recordJob(ctx, resp, req, caller)
	return resp, nil
}

// ImportNew creates a dump whose questions come from an uploaded file
func (s *importExportService) ImportNew(ctx context.Context, req *CreateDumpRequest, upload *ImportRequest, caller *auth.Identity) (resp *ImportResponse, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "import_new_dump", callerID(caller), "", start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	rows, err := readUpload(upload)
	if err != nil {
		return nil, err
	}
	if err = checkCategory(ctx, s.repo, req.CategoryID); err != nil {
		return nil, err
	}

	result, err := s.reconciler.Reconcile(importer.PolicySkip, rows, nil)
	if err != nil {
		return nil, err
	}

	dump := &models.Dump{
		Name:                  strings.TrimSpace(req.Name),
		Description:           req.Description,
		Questions:             datatypes.NewJSONSlice(result.Merged),
		IsPublic:              req.IsPublic,
		TimeLimit:             req.TimeLimit,
		ShowAnswerImmediately: req.ShowAnswerImmediately,
		CategoryID:            req.CategoryID,
		CreatedBy:             caller.UserID,
	}
	if err = s.repo.Dump().Create(ctx, dump); err != nil {
		return nil, fmt.Errorf("failed to create dump: %w", err)
	}

	resp = &ImportResponse{
		DumpID:        dump.ID,
		Filename:      upload.Filename,
		Policy:        result.Policy,
		Applied:       true,
		Report:        result.Report,
		QuestionCount: len(result.Merged),
	}
	s.publishImported(ctx, resp, caller)
	s.recordJob(ctx, resp, upload, caller)
	return resp, nil
}

// ListImports returns the import log of a dump, newest first
func (s *importExportService) ListImports(ctx context.Context, dumpID uint, opts repositories.ListOptions, caller *auth.Identity) (*ImportJobListResponse, error) {
	dump, err := loadDump(ctx, s.repo, dumpID)
	if err != nil {
		return nil, err
	}
	canEdit, err := s.policy.CanEdit(ctx, dump, caller)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(callerID(caller), dumpID, "dump", "view imports of", "no edit permission")
	}

	jobs, total, err := s.repo.ImportJob().ListByDump(ctx, dumpID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	return &ImportJobListResponse{
		Imports: jobs,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}, nil
}

// ===== EXPORT =====

// Export renders the dump in the importable row format. Answer keys are
// included, so edit permission is required.
func (s *importExportService) Export(ctx context.Context, dumpID uint, format string, caller *auth.Identity) (file *ExportFile, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "export_questions", callerID(caller), fmt.Sprint(dumpID), start, err)
	}(time.Now())

	f, err := spreadsheet.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	dump, err := loadDump(ctx, s.repo, dumpID)
	if err != nil {
		return nil, err
	}
	canEdit, err := s.policy.CanEdit(ctx, dump, caller)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(callerID(caller), dumpID, "dump", "export", "no edit permission")
	}

	data, err := spreadsheet.Write(importer.ExportHeaders, importer.ExportRows(dump.Questions), f)
	if err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return &ExportFile{
		Filename:    exportFilename(dump.Name, f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// Template returns an empty import file with one example row
func (s *importExportService) Template(format string) (*ExportFile, error) {
	f, err := spreadsheet.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	example := importer.ExportRows([]models.Question{{
		Type:           models.MultipleChoiceSingle,
		Text:           "What is the capital of France?",
		Options:        map[string]string{"A": "Berlin", "B": "Madrid", "C": "Paris", "D": "Rome"},
		CorrectAnswers: []string{"C"},
		Explanation:    "Paris has been the capital since 508.",
	}})
	data, err := spreadsheet.Write(importer.ExportHeaders, example, f)
	if err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return &ExportFile{
		Filename:    "questions-template." + string(f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// ===== HELPERS =====

func readUpload(req *ImportRequest) ([]importer.Row, error) {
	if req == nil || req.File == nil {
		return nil, NewValidationError("file", "is required", nil)
	}

	var format spreadsheet.Format
	var err error
	if req.Format != "" {
		format, err = spreadsheet.ParseFormat(req.Format)
	} else {
		format, err = spreadsheet.FormatFromFilename(req.Filename)
	}
	if err != nil {
		return nil, err
	}
	return spreadsheet.Parse(req.File, format)
}

func (s *importExportService) publishImported(ctx context.Context, resp *ImportResponse, caller *auth.Identity) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventDumpImported, events.DumpImportedEvent{
		DumpID:     resp.DumpID,
		ImportedBy: callerID(caller),
		Policy:     string(resp.Policy),
		Filename:   resp.Filename,
		NewCount:   resp.Report.NewCount,
		Duplicates: len(resp.Report.Duplicates),
		Changed:    resp.Report.ChangedCount(),
		Skipped:    resp.Report.Skipped,
		Questions:  resp.QuestionCount,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Logger().Warn("Failed to publish import event", "dump_id", resp.DumpID, "error", err)
	}
}

// recordJob appends the run to the import log. Failures are logged only,
// the questions are already saved.
func (s *importExportService) recordJob(ctx context.Context, resp *ImportResponse, upload *ImportRequest, caller *auth.Identity) {
	job := &models.ImportJob{
		ID:             uuid.NewString(),
		DumpID:         resp.DumpID,
		UserID:         callerID(caller),
		FileName:       resp.Filename,
		FileType:       uploadFormat(upload),
		Policy:         string(resp.Policy),
		Status:         models.ImportApplied,
		TotalRows:      resp.Report.Total + resp.Report.Skipped,
		SkippedRows:    resp.Report.Skipped,
		NewCount:       resp.Report.NewCount,
		DuplicateCount: len(resp.Report.Duplicates),
		ChangedCount:   resp.Report.ChangedCount(),
		QuestionCount:  resp.QuestionCount,
	}
	if !resp.Applied {
		job.Status = models.ImportPendingDecision
	}
	if err := s.repo.ImportJob().Create(ctx, job); err != nil {
		s.logger.Logger().Warn("Failed to record import job", "dump_id", resp.DumpID, "error", err)
	}
}

func uploadFormat(req *ImportRequest) string {
	if req.Format != "" {
		return strings.ToLower(strings.TrimSpace(req.Format))
	}
	f, err := spreadsheet.FormatFromFilename(req.Filename)
	if err != nil {
		return "unknown"
	}
	return string(f)
}

func exportFilename(name string, format spreadsheet.Format) string {
	slug := strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return '-'
	}, strings.TrimSpace(name))
	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if slug == "" {
		slug = "dump"
	}
	return slug + "." + string(format)
}
