package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/quiz"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/jinzhu/copier"
)

type historyService struct {
	repo   repositories.Repository
	logger *ServiceLogger
}

func NewHistoryService(repo repositories.Repository, logger *slog.Logger) HistoryService {
	return &historyService{
		repo:   repo,
		logger: NewServiceLogger(logger, "history"),
	}
}

func (s *historyService) List(ctx context.Context, filters repositories.HistoryFilters, caller *auth.Identity) (*HistoryListResponse, error) {
	records, total, err := s.repo.History().ListByUser(ctx, caller.UserID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempt history: %w", err)
	}

	resp := &HistoryListResponse{
		History: make([]HistoryResponse, 0, len(records)),
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}
	for _, h := range records {
		item, err := buildHistoryResponse(h)
		if err != nil {
			return nil, err
		}
		resp.History = append(resp.History, item)
	}
	return resp, nil
}

// Get returns one attempt with every question, the recorded answer and its
// final status, as shown in review.
func (s *historyService) Get(ctx context.Context, id uint, caller *auth.Identity) (*HistoryDetail, error) {
	h, err := s.load(ctx, id, caller, "read")
	if err != nil {
		return nil, err
	}

	summary, err := buildHistoryResponse(h)
	if err != nil {
		return nil, err
	}
	answers := h.Answers.Data()
	detail := &HistoryDetail{
		HistoryResponse: summary,
		Items:           make([]HistoryItem, 0, len(h.Questions)),
	}
	for i, q := range h.Questions {
		item := HistoryItem{Index: i, Question: q, Status: quiz.StatusUnanswered}
		if answer, ok := answers[i]; ok && !answer.Empty() {
			a := answer
			item.Answer = &a
			switch {
			case q.Type == models.HTMLField:
				item.Status = quiz.StatusAnswered
			case answer.IsCorrect:
				item.Status = quiz.StatusCorrect
			default:
				item.Status = quiz.StatusWrong
			}
		}
		detail.Items = append(detail.Items, item)
	}
	return detail, nil
}

func (s *historyService) Delete(ctx context.Context, id uint, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "delete_history", callerID(caller), fmt.Sprint(id), start, err)
	}(time.Now())

	if _, err = s.load(ctx, id, caller, "delete"); err != nil {
		return err
	}
	if err = s.repo.History().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrHistoryNotFound
		}
		return fmt.Errorf("failed to delete attempt history: %w", err)
	}
	return nil
}

func (s *historyService) load(ctx context.Context, id uint, caller *auth.Identity, action string) (*models.AttemptHistory, error) {
	h, err := s.repo.History().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}
	if h.UserID != callerID(caller) && !caller.IsAdmin() {
		return nil, NewPermissionError(callerID(caller), id, "attempt history", action, "attempt belongs to another user")
	}
	return h, nil
}

func buildHistoryResponse(h *models.AttemptHistory) (HistoryResponse, error) {
	var resp HistoryResponse
	if err := copier.Copy(&resp, h); err != nil {
		return resp, fmt.Errorf("failed to map attempt history %d: %w", h.ID, err)
	}
	resp.Percentage = h.Percentage()
	return resp, nil
}
