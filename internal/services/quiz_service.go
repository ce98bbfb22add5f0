package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/events"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/quiz"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultLockRetries = 5
	defaultLockWait    = 50 * time.Millisecond
)

type quizService struct {
	repo      repositories.Repository
	store     SessionStore
	policy    *AccessPolicy
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger

	now         func() time.Time
	newID       func() string
	lockRetries int
	lockWait    time.Duration
}

func NewQuizService(repo repositories.Repository, store SessionStore, policy *AccessPolicy, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:        repo,
		store:       store,
		policy:      policy,
		publisher:   publisher,
		validator:   validator,
		logger:      NewServiceLogger(logger, "quiz"),
		now:         time.Now,
		newID:       uuid.NewString,
		lockRetries: defaultLockRetries,
		lockWait:    defaultLockWait,
	}
}

// ===== SESSION LIFECYCLE =====

func (s *quizService) Start(ctx context.Context, dumpID uint, caller *auth.Identity) (view *SessionView, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "start_quiz", callerID(caller), fmt.Sprint(dumpID), start, err)
	}(time.Now())

	dump, err := loadDump(ctx, s.repo, dumpID)
	if err != nil {
		return nil, err
	}
	canRead, err := s.policy.CanRead(ctx, dump, caller)
	if err != nil {
		return nil, err
	}
	if !canRead {
		return nil, NewPermissionError(callerID(caller), dumpID, "dump", "practice", "dump is private and not shared with the user")
	}

	now := s.now()
	session, err := quiz.NewSession(s.newID(), caller.UserID, dump.ID, dump.Name, []models.Question(dump.Questions), quiz.Config{
		TimeLimit:             dump.TimeLimit,
		ShowAnswerImmediately: dump.ShowAnswerImmediately,
	}, now)
	if err != nil {
		return nil, err
	}

	record := &SessionRecord{Session: *session}
	if err = s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(ctx, events.EventAttemptStarted, events.AttemptStartedEvent{
		SessionID: record.ID,
		UserID:    record.UserID,
		DumpID:    record.DumpID,
		DumpName:  record.DumpName,
		Total:     len(record.Questions),
		TimeLimit: record.Config.TimeLimit,
		StartedAt: record.StartedAt,
	})

	return buildSessionView(record), nil
}

func (s *quizService) Get(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error) {
	return s.mutate(ctx, "get_session", sessionID, callerID(caller), nil)
}

func (s *quizService) ListActive(ctx context.Context, caller *auth.Identity) ([]*SessionSummary, error) {
	records, err := s.store.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := s.now()
	summaries := make([]*SessionSummary, 0, len(records))
	for _, record := range records {
		// clock catch-up for display only; the sweeper persists timeouts
		record.AdvanceTo(now)
		progress := record.ProgressSummary()
		summary := &SessionSummary{
			ID:        record.ID,
			DumpID:    record.DumpID,
			DumpName:  record.DumpName,
			StartedAt: record.StartedAt,
			Answered:  progress.Answered,
			Total:     progress.Total,
			Finished:  record.Finished,
		}
		if record.TimeRemaining != nil {
			remaining := *record.TimeRemaining
			summary.TimeRemaining = &remaining
		}
		if deadline := record.Deadline(); !deadline.IsZero() {
			summary.Deadline = &deadline
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

func (s *quizService) Abandon(ctx context.Context, sessionID string, caller *auth.Identity) (err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, "abandon_session", callerID(caller), sessionID, start, err)
	}(time.Now())

	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer s.release(ctx, sessionID, unlock)

	if _, err = s.store.Load(ctx, caller.UserID, sessionID); err != nil {
		return err
	}
	if err = s.store.Delete(ctx, caller.UserID, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ===== ANSWERING =====

func (s *quizService) SelectOption(ctx context.Context, sessionID string, req *SelectOptionRequest, caller *auth.Identity) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "select_option", sessionID, callerID(caller), func(record *SessionRecord) error {
		return quizError(record.SelectOption(req.Index, req.Key))
	})
}

func (s *quizService) SetShortAnswer(ctx context.Context, sessionID string, req *TextAnswerRequest, caller *auth.Identity) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "set_short_answer", sessionID, callerID(caller), func(record *SessionRecord) error {
		return quizError(record.SetShortAnswer(req.Index, req.Value))
	})
}

func (s *quizService) SetHTMLField(ctx context.Context, sessionID string, req *TextAnswerRequest, caller *auth.Identity) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "set_html_field", sessionID, callerID(caller), func(record *SessionRecord) error {
		return quizError(record.SetHTMLField(req.Index, req.Value))
	})
}

// ===== NAVIGATION AND MODES =====

func (s *quizService) Navigate(ctx context.Context, sessionID string, req *NavigateRequest, caller *auth.Identity) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Action == NavigateJump && req.Index == nil {
		return nil, NewValidationError("index", "is required for jump", nil)
	}
	return s.mutate(ctx, "navigate", sessionID, callerID(caller), func(record *SessionRecord) error {
		switch req.Action {
		case NavigateNext:
			record.GoNext()
		case NavigatePrevious:
			record.GoPrevious()
		case NavigateJump:
			return quizError(record.JumpTo(*req.Index))
		}
		return nil
	})
}

func (s *quizService) Finish(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error) {
	return s.mutate(ctx, "finish_session", sessionID, callerID(caller), func(record *SessionRecord) error {
		record.Finish()
		return nil
	})
}

func (s *quizService) EnterReview(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error) {
	return s.mutate(ctx, "enter_review", sessionID, callerID(caller), func(record *SessionRecord) error {
		record.EnterReview()
		return nil
	})
}

func (s *quizService) ExitReview(ctx context.Context, sessionID string, caller *auth.Identity) (*SessionView, error) {
	return s.mutate(ctx, "exit_review", sessionID, callerID(caller), func(record *SessionRecord) error {
		record.ExitReview()
		return nil
	})
}

// ===== TIMER SWEEP =====

func (s *quizService) SweepExpired(ctx context.Context) (int, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := s.now()
	finished := 0
	for _, record := range records {
		pendingHistory := record.Finished && record.HistoryID == nil
		deadline := record.Deadline()
		expired := !deadline.IsZero() && !deadline.After(now)
		if !pendingHistory && !expired {
			continue
		}

		view, err := s.mutate(ctx, "sweep_session", record.ID, record.UserID, nil)
		if err != nil {
			s.logger.Logger().Warn("Failed to sweep session",
				"session_id", record.ID,
				"user_id", record.UserID,
				"error", err)
			continue
		}
		if view.Finished {
			finished++
		}
	}
	return finished, nil
}

func (s *quizService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Logger().Info("Session sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Logger().Info("Session sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.logger.Logger().Error("Session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Logger().Info("Finished expired sessions", "count", n)
			}
		}
	}
}

// ===== HELPERS =====

// mutate loads a session under its lock, catches the clock up, applies fn
// and persists the result. A finished attempt without a history id is
// recorded on every call until the write succeeds. Errors from fn are
// returned after the clock update is saved.
func (s *quizService) mutate(ctx context.Context, operation, sessionID, userID string, fn func(*SessionRecord) error) (view *SessionView, err error) {
	defer func(start time.Time) {
		s.logger.LogOperation(ctx, operation, userID, sessionID, start, err)
	}(time.Now())

	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, sessionID, unlock)

	record, err := s.store.Load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	record.AdvanceTo(s.now())

	var opErr error
	if fn != nil {
		opErr = fn(record)
	}

	var historyErr error
	if record.Finished && record.HistoryID == nil {
		historyErr = s.recordHistory(ctx, record)
	}
	if err = s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if historyErr != nil {
		return nil, historyErr
	}
	if opErr != nil {
		return nil, opErr
	}
	return buildSessionView(record), nil
}

func (s *quizService) lock(ctx context.Context, sessionID string) (func(context.Context) error, error) {
	for attempt := 0; ; attempt++ {
		unlock, err := s.store.Lock(ctx, sessionID)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrSessionBusy) || attempt >= s.lockRetries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.lockWait):
		}
	}
}

func (s *quizService) release(ctx context.Context, sessionID string, unlock func(context.Context) error) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		s.logger.Logger().Warn("Failed to release session lock", "session_id", sessionID, "error", err)
	}
}

// recordHistory writes the attempt once per session id
func (s *quizService) recordHistory(ctx context.Context, record *SessionRecord) error {
	existing, err := s.repo.History().GetBySessionID(ctx, record.ID)
	if err == nil {
		record.HistoryID = &existing.ID
		return nil
	}
	if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to check attempt history: %w", err)
	}

	completedAt := s.now()
	if record.FinishedAt != nil {
		completedAt = *record.FinishedAt
	}
	answers := make(map[int]models.AnswerRecord, len(record.Answers))
	for index, answer := range record.Answers {
		answers[index] = answer
	}

	history := &models.AttemptHistory{
		UserID:      record.UserID,
		DumpID:      record.DumpID,
		DumpName:    record.DumpName,
		SessionID:   record.ID,
		Score:       record.FinalScore(),
		Total:       len(record.Questions),
		Answers:     datatypes.NewJSONType(answers),
		Questions:   datatypes.NewJSONSlice(record.Questions),
		TimedOut:    record.TimedOut,
		CompletedAt: completedAt,
	}
	if err := s.repo.History().Create(ctx, history); err != nil {
		return fmt.Errorf("failed to record attempt history: %w", err)
	}
	record.HistoryID = &history.ID

	s.publish(ctx, events.EventAttemptCompleted, events.AttemptCompletedEvent{
		SessionID:   record.ID,
		HistoryID:   history.ID,
		UserID:      record.UserID,
		DumpID:      record.DumpID,
		DumpName:    record.DumpName,
		Score:       history.Score,
		Total:       history.Total,
		TimedOut:    history.TimedOut,
		CompletedAt: completedAt,
	})
	return nil
}

// publish is best effort; the attempt is already stored
func (s *quizService) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Logger().Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func quizError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, quiz.ErrIndexOutOfRange):
		return NewValidationError("index", err.Error(), nil)
	case errors.Is(err, quiz.ErrQuestionTypeMismatch):
		return NewValidationError("index", err.Error(), nil)
	case errors.Is(err, quiz.ErrUnknownOption):
		return NewValidationError("key", err.Error(), nil)
	}
	return err
}

// buildSessionView renders the current question. Answer keys appear while
// reviewing, or after the question is answered when the dump shows answers
// immediately.
func buildSessionView(record *SessionRecord) *SessionView {
	q := record.CurrentQuestion()
	answer, answered := record.Answers[record.CurrentIndex]
	answered = answered && !answer.Empty()
	reveal := record.Mode == quiz.ModeReviewing || (record.Config.ShowAnswerImmediately && answered)

	view := &SessionView{
		ID:           record.ID,
		DumpID:       record.DumpID,
		DumpName:     record.DumpName,
		Mode:         record.Mode,
		CurrentIndex: record.CurrentIndex,
		Statuses:     record.Statuses(),
		Progress:     record.ProgressSummary(),
		StartedAt:    record.StartedAt,
		Finished:     record.Finished,
		TimedOut:     record.TimedOut,
		FinishedAt:   record.FinishedAt,
		HistoryID:    record.HistoryID,
		Question: QuestionView{
			ID:   q.ID,
			Type: q.Type,
			Text: q.Text,
		},
	}
	if len(q.Options) > 0 {
		view.Question.Options = make(map[string]string, len(q.Options))
		for k, v := range q.Options {
			view.Question.Options[k] = v
		}
	}
	if reveal {
		view.Question.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
		view.Question.AcceptedAnswers = append([]string(nil), q.AcceptedAnswers...)
		view.Question.Explanation = q.Explanation
	}

	if answered {
		view.Answer = &AnswerView{
			Selected: append([]string(nil), answer.Selected...),
			Text:     answer.Text,
			HTML:     answer.HTML,
		}
		if record.Revealing() && q.Type != models.HTMLField {
			correct := answer.IsCorrect
			view.Answer.IsCorrect = &correct
		}
	}

	if record.TimeRemaining != nil {
		remaining := *record.TimeRemaining
		view.TimeRemaining = &remaining
	}
	if deadline := record.Deadline(); !deadline.IsZero() {
		view.Deadline = &deadline
	}
	return view
}
