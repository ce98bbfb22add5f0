package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gorm.io/datatypes"
)

type dumpService struct {
	repo      repositories.Repository
	policy    *AccessPolicy
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewDumpService(repo repositories.Repository, policy *AccessPolicy, logger *slog.Logger, validator *validator.Validator) DumpService {
	return &dumpService{
		repo:      repo,
		policy:    policy,
		logger:    NewServiceLogger(logger, "dump"),
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *dumpService) Create(ctx context.Context, req *CreateDumpRequest, caller *auth.Identity) (resp *DumpResponse, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "create_dump", callerID(caller), "", start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	questions, err := s.prepareQuestions(req.Questions)
	if err != nil {
		return nil, err
	}
	if err = checkCategory(ctx, s.repo, req.CategoryID); err != nil {
		return nil, err
	}

	dump := &models.Dump{
		Name:                  strings.TrimSpace(req.Name),
		Description:           req.Description,
		Questions:             datatypes.NewJSONSlice(questions),
		IsPublic:              req.IsPublic,
		TimeLimit:             req.TimeLimit,
		ShowAnswerImmediately: req.ShowAnswerImmediately,
		CategoryID:            req.CategoryID,
		CreatedBy:             caller.UserID,
	}
	if err = s.repo.Dump().Create(ctx, dump); err != nil {
		return nil, fmt.Errorf("failed to create dump: %w", err)
	}

	return s.buildResponse(dump, true, true)
}

func (s *dumpService) Get(ctx context.Context, id uint, caller *auth.Identity) (*DumpResponse, error) {
	dump, err := s.repo.Dump().GetByIDWithDetails(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDumpNotFound
		}
		return nil, fmt.Errorf("failed to get dump: %w", err)
	}

	canRead, err := s.policy.CanRead(ctx, dump, caller)
	if err != nil {
		return nil, err
	}
	if !canRead {
		return nil, NewPermissionError(callerID(caller), id, "dump", "read", "dump is private and not shared with the user")
	}
	canEdit, err := s.policy.CanEdit(ctx, dump, caller)
	if err != nil {
		return nil, err
	}

	return s.buildResponse(dump, true, canEdit)
}

func (s *dumpService) List(ctx context.Context, filters repositories.DumpFilters, caller *auth.Identity) (*DumpListResponse, error) {
	dumps, total, err := s.repo.Dump().ListForUser(ctx, caller.UserID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list dumps: %w", err)
	}

	resp := &DumpListResponse{
		Dumps:  make([]DumpResponse, 0, len(dumps)),
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	for _, dump := range dumps {
		item, err := s.buildResponse(dump, false, s.policy.CanManage(dump, caller))
		if err != nil {
			return nil, err
		}
		resp.Dumps = append(resp.Dumps, *item)
	}
	return resp, nil
}

func (s *dumpService) Update(ctx context.Context, id uint, req *UpdateDumpRequest, caller *auth.Identity) (resp *DumpResponse, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "update_dump", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	dump, err := s.loadEditable(ctx, id, caller, "update")
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		dump.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		dump.Description = req.Description
	}
	if req.IsPublic != nil {
		dump.IsPublic = *req.IsPublic
	}
	if req.TimeLimit != nil {
		dump.TimeLimit = *req.TimeLimit
	}
	if req.ShowAnswerImmediately != nil {
		dump.ShowAnswerImmediately = *req.ShowAnswerImmediately
	}
	if req.CategoryID != nil {
		if err = checkCategory(ctx, s.repo, req.CategoryID); err != nil {
			return nil, err
		}
		dump.CategoryID = req.CategoryID
	}
	if req.Questions != nil {
		questions, err := s.prepareQuestions(*req.Questions)
		if err != nil {
			return nil, err
		}
		dump.Questions = datatypes.NewJSONSlice(questions)
	}

	if err = s.repo.Dump().Update(ctx, dump); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDumpNotFound
		}
		return nil, fmt.Errorf("failed to update dump: %w", err)
	}

	return s.buildResponse(dump, true, true)
}

func (s *dumpService) Delete(ctx context.Context, id uint, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "delete_dump", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	dump, err := loadDump(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if !s.policy.CanManage(dump, caller) {
		return NewPermissionError(callerID(caller), id, "dump", "delete", "only the owner can delete a dump")
	}

	if err = s.repo.Dump().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrDumpNotFound
		}
		return fmt.Errorf("failed to delete dump: %w", err)
	}
	return nil
}

// ===== QUESTION AUTHORING =====

func (s *dumpService) AddQuestion(ctx context.Context, id uint, question *models.Question, caller *auth.Identity) (*models.Question, error) {
	var added models.Question
	err := s.editQuestions(ctx, id, caller, func(questions []models.Question) ([]models.Question, error) {
		q := *question
		q.ID = ""
		questions = append(questions, q)
		prepared, err := s.prepareQuestions(questions)
		if err != nil {
			return nil, err
		}
		added = prepared[len(prepared)-1]
		return prepared, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (s *dumpService) UpdateQuestion(ctx context.Context, id uint, questionID string, question *models.Question, caller *auth.Identity) (*models.Question, error) {
	var updated models.Question
	err := s.editQuestions(ctx, id, caller, func(questions []models.Question) ([]models.Question, error) {
		index := indexOfQuestion(questions, questionID)
		if index < 0 {
			return nil, ErrNotFound
		}
		q := *question
		q.ID = questionID
		questions[index] = q
		prepared, err := s.prepareQuestions(questions)
		if err != nil {
			return nil, err
		}
		updated = prepared[index]
		return prepared, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *dumpService) DeleteQuestion(ctx context.Context, id uint, questionID string, caller *auth.Identity) error {
	return s.editQuestions(ctx, id, caller, func(questions []models.Question) ([]models.Question, error) {
		index := indexOfQuestion(questions, questionID)
		if index < 0 {
			return nil, ErrNotFound
		}
		return append(questions[:index], questions[index+1:]...), nil
	})
}

// editQuestions applies fn to the question list under a row lock
func (s *dumpService) editQuestions(ctx context.Context, id uint, caller *auth.Identity, fn func([]models.Question) ([]models.Question, error)) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "edit_questions", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if _, err = s.loadEditable(ctx, id, caller, "edit questions of"); err != nil {
		return err
	}

	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		dump, err := tx.Dump().GetForUpdate(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrDumpNotFound
			}
			return fmt.Errorf("failed to lock dump: %w", err)
		}

		questions := make([]models.Question, len(dump.Questions))
		for i, q := range dump.Questions {
			questions[i] = q.Clone()
		}
		questions, err = fn(questions)
		if err != nil {
			return err
		}
		if err := tx.Dump().UpdateQuestions(ctx, id, questions); err != nil {
			return fmt.Errorf("failed to save questions: %w", err)
		}
		return nil
	})
}

// ===== SHARING =====

func (s *dumpService) Share(ctx context.Context, id uint, req *ShareDumpRequest, caller *auth.Identity) (share *models.DumpShare, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "share_dump", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	dump, err := loadDump(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanManage(dump, caller) {
		return nil, NewPermissionError(callerID(caller), id, "dump", "share", "only the owner can share a dump")
	}
	if _, err = s.repo.Group().GetByID(ctx, req.GroupID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	share = &models.DumpShare{
		DumpID:     id,
		GroupID:    req.GroupID,
		Permission: req.Permission,
		SharedBy:   caller.UserID,
		SharedAt:   time.Now(),
	}
	if err = s.repo.Dump().Share(ctx, share); err != nil {
		return nil, fmt.Errorf("failed to share dump: %w", err)
	}
	return share, nil
}

func (s *dumpService) Unshare(ctx context.Context, id, groupID uint, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "unshare_dump", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	dump, err := loadDump(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if !s.policy.CanManage(dump, caller) {
		return NewPermissionError(callerID(caller), id, "dump", "unshare", "only the owner can change sharing")
	}
	if err = s.repo.Dump().Unshare(ctx, id, groupID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to unshare dump: %w", err)
	}
	return nil
}

func (s *dumpService) GetShares(ctx context.Context, id uint, caller *auth.Identity) ([]*models.DumpShare, error) {
	dump, err := loadDump(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanManage(dump, caller) {
		return nil, NewPermissionError(callerID(caller), id, "dump", "list shares of", "only the owner can see sharing")
	}
	shares, err := s.repo.Dump().GetShares(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get dump shares: %w", err)
	}
	return shares, nil
}

// ===== HELPERS =====

func (s *dumpService) loadEditable(ctx context.Context, id uint, caller *auth.Identity, action string) (*models.Dump, error) {
	dump, err := loadDump(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	canEdit, err := s.policy.CanEdit(ctx, dump, caller)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(callerID(caller), id, "dump", action, "no edit permission")
	}
	return dump, nil
}

// prepareQuestions normalizes, assigns ids and validates a question list
func (s *dumpService) prepareQuestions(questions []models.Question) ([]models.Question, error) {
	prepared := make([]models.Question, len(questions))
	for i, q := range questions {
		q = s.validator.Question().Normalize(q)
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		prepared[i] = q
	}
	if err := s.validator.Question().ValidateBatch(prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

func checkCategory(ctx context.Context, repo repositories.Repository, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := repo.Category().GetByID(ctx, *id); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("category_id", "category does not exist", *id)
		}
		return fmt.Errorf("failed to get category: %w", err)
	}
	return nil
}

// buildResponse maps a dump to its response. Readers without edit rights
// get the questions without answer keys.
func (s *dumpService) buildResponse(dump *models.Dump, withQuestions, canEdit bool) (*DumpResponse, error) {
	resp := &DumpResponse{}
	if err := copier.Copy(resp, dump); err != nil {
		return nil, fmt.Errorf("failed to map dump %d: %w", dump.ID, err)
	}
	resp.QuestionCount = len(dump.Questions)
	resp.CanEdit = canEdit

	if withQuestions {
		resp.Questions = make([]models.Question, 0, len(dump.Questions))
		for _, q := range dump.Questions {
			q = q.Clone()
			if !canEdit {
				q.CorrectAnswers = nil
				q.AcceptedAnswers = nil
				q.Explanation = ""
			}
			resp.Questions = append(resp.Questions, q)
		}
	}
	return resp, nil
}

func indexOfQuestion(questions []models.Question, id string) int {
	for i, q := range questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
