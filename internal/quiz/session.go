package quiz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
)

type Mode string

const (
	ModeAnswering Mode = "answering"
	ModeReviewing Mode = "reviewing"
)

type Status string

const (
	StatusUnanswered Status = "unanswered"
	StatusAnswered   Status = "answered"
	StatusCorrect    Status = "correct"
	StatusWrong      Status = "wrong"
)

var (
	ErrIndexOutOfRange      = errors.New("question index out of range")
	ErrQuestionTypeMismatch = errors.New("operation does not apply to this question type")
	ErrUnknownOption        = errors.New("unknown option key")
)

// Config is the per-dump quiz configuration.
type Config struct {
	TimeLimit             int  `json:"time_limit"` // minutes
	ShowAnswerImmediately bool `json:"show_answer_immediately"`
}

// Session is one quiz attempt. It is a plain value so the host can persist it
// between requests; the host must serialize access per session id.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	DumpID    uint              `json:"dump_id"`
	DumpName  string            `json:"dump_name"`
	Questions []models.Question `json:"questions"`
	Config    Config            `json:"config"`
	StartedAt time.Time         `json:"started_at"`

	CurrentIndex  int                         `json:"current_index"`
	Answers       map[int]models.AnswerRecord `json:"answers"`
	Mode          Mode                        `json:"mode"`
	Reviewed      bool                        `json:"reviewed"`
	TimeRemaining *int                        `json:"time_remaining,omitempty"` // seconds
	ClockedAt     time.Time                   `json:"clocked_at"`
	Finished      bool                        `json:"finished"`
	TimedOut      bool                        `json:"timed_out"`
	Score         int                         `json:"score"`
	FinishedAt    *time.Time                  `json:"finished_at,omitempty"`
}

// Progress summarises the attempt. Correct is nil unless correctness is
// currently revealed and never counts html_field answers.
type Progress struct {
	Total    int  `json:"total"`
	Answered int  `json:"answered"`
	Correct  *int `json:"correct,omitempty"`
	Finished bool `json:"finished"`
	Score    *int `json:"score,omitempty"`
}

// NewSession validates the question list and builds a session positioned at
// the first question. The countdown starts at now when cfg.TimeLimit > 0.
func NewSession(id, userID string, dumpID uint, dumpName string, questions []models.Question, cfg Config, now time.Time) (*Session, error) {
	if len(questions) == 0 {
		return nil, apperrors.NewValidationError("questions", "question set is empty", 0)
	}
	if errs := ValidateQuestions(questions); len(errs) > 0 {
		return nil, errs
	}
	if cfg.TimeLimit < 0 {
		return nil, apperrors.NewValidationError("time_limit", "must not be negative", cfg.TimeLimit)
	}

	qs := make([]models.Question, len(questions))
	for i, q := range questions {
		qs[i] = q.Clone()
	}

	s := &Session{
		ID:        id,
		UserID:    userID,
		DumpID:    dumpID,
		DumpName:  dumpName,
		Questions: qs,
		Config:    cfg,
		StartedAt: now,
		Answers:   make(map[int]models.AnswerRecord),
		Mode:      ModeAnswering,
		ClockedAt: now,
	}
	if cfg.TimeLimit > 0 {
		remaining := cfg.TimeLimit * 60
		s.TimeRemaining = &remaining
	}
	return s, nil
}

// ValidateQuestions checks the Question invariants the session relies on.
func ValidateQuestions(questions []models.Question) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors
	for i, q := range questions {
		field := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, *apperrors.NewValidationError(field+".text", "is required", nil))
		}
		switch {
		case q.Type.IsChoice():
			if len(q.CorrectAnswers) == 0 {
				errs = append(errs, *apperrors.NewValidationError(field+".correct_answers", "must contain at least one option key", nil))
			}
			for _, key := range q.CorrectAnswers {
				if !q.HasOption(key) {
					errs = append(errs, *apperrors.NewValidationError(field+".correct_answers", "references a missing option", key))
				}
			}
			if q.Type.IsSingleSelect() && len(q.CorrectAnswers) > 1 {
				errs = append(errs, *apperrors.NewValidationError(field+".correct_answers", "single-answer question has several correct options", q.CorrectAnswers))
			}
		case q.Type == models.ShortAnswer:
			if len(q.AcceptedAnswers) == 0 {
				errs = append(errs, *apperrors.NewValidationError(field+".accepted_answers", "must not be empty", nil))
			}
		case q.Type == models.HTMLField:
		default:
			errs = append(errs, *apperrors.NewValidationError(field+".type", "is not a known question type", q.Type))
		}
	}
	return errs
}

func (s *Session) inRange(index int) bool {
	return index >= 0 && index < len(s.Questions)
}

// locked reports whether answers may no longer change. Answers seen in review
// stay locked after leaving it.
func (s *Session) locked() bool {
	return s.Mode == ModeReviewing || s.Reviewed || s.Finished
}

// SelectOption records an option choice. Single-answer types replace the
// selection, multiple-answer types toggle the key.
func (s *Session) SelectOption(index int, key string) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	q := s.Questions[index]
	if !q.Type.IsChoice() {
		return ErrQuestionTypeMismatch
	}
	key = strings.ToUpper(strings.TrimSpace(key))
	if !q.HasOption(key) {
		return ErrUnknownOption
	}
	if s.locked() {
		return nil
	}

	rec := s.Answers[index]
	if q.Type.IsSingleSelect() {
		rec.Selected = []string{key}
	} else {
		rec.Selected = toggle(rec.Selected, key)
	}
	rec.IsCorrect = sameSet(rec.Selected, q.CorrectAnswers)
	s.Answers[index] = rec
	return nil
}

// SetShortAnswer records free text for a short_answer question.
func (s *Session) SetShortAnswer(index int, text string) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	q := s.Questions[index]
	if q.Type != models.ShortAnswer {
		return ErrQuestionTypeMismatch
	}
	if s.locked() {
		return nil
	}

	s.Answers[index] = models.AnswerRecord{
		Text:      text,
		IsCorrect: acceptsText(q.AcceptedAnswers, text),
	}
	return nil
}

// SetHTMLField records rich content for an html_field question. Correctness
// only means that some content was produced.
func (s *Session) SetHTMLField(index int, html string) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	if s.Questions[index].Type != models.HTMLField {
		return ErrQuestionTypeMismatch
	}
	if s.locked() {
		return nil
	}

	s.Answers[index] = models.AnswerRecord{
		HTML:      html,
		IsCorrect: hasContent(html),
	}
	return nil
}

// GoNext advances one question. On the last question it finishes the attempt
// while answering, or leaves review mode while reviewing.
func (s *Session) GoNext() {
	if s.CurrentIndex < len(s.Questions)-1 {
		s.CurrentIndex++
		return
	}
	if s.Mode == ModeReviewing {
		s.ExitReview()
		return
	}
	s.Finish()
}

func (s *Session) GoPrevious() {
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
}

func (s *Session) JumpTo(index int) error {
	if !s.inRange(index) {
		return ErrIndexOutOfRange
	}
	s.CurrentIndex = index
	return nil
}

// Finish computes the score and marks the attempt finished. It returns true
// only on the call that performed the transition.
func (s *Session) Finish() bool {
	if s.Finished || s.Mode == ModeReviewing {
		return false
	}
	score := 0
	for index, rec := range s.Answers {
		if s.inRange(index) && rec.IsCorrect {
			score++
		}
	}
	s.Score = score
	s.Finished = true
	finishedAt := s.ClockedAt
	s.FinishedAt = &finishedAt
	return true
}

// EnterReview locks answers for the rest of the attempt and rewinds to the
// first question.
func (s *Session) EnterReview() {
	s.Mode = ModeReviewing
	s.Reviewed = true
	s.CurrentIndex = 0
}

// ExitReview returns to answering mode. Navigation and Finish work again but
// answers stay locked.
func (s *Session) ExitReview() {
	s.Mode = ModeAnswering
}

// Revealing reports whether per-question correctness may be shown.
func (s *Session) Revealing() bool {
	return s.Mode == ModeReviewing || s.Config.ShowAnswerImmediately
}

func (s *Session) QuestionStatus(index int) (Status, error) {
	if !s.inRange(index) {
		return StatusUnanswered, ErrIndexOutOfRange
	}
	rec, ok := s.Answers[index]
	if !ok || rec.Empty() {
		return StatusUnanswered, nil
	}
	if s.Questions[index].Type == models.HTMLField || !s.Revealing() {
		return StatusAnswered, nil
	}
	if rec.IsCorrect {
		return StatusCorrect, nil
	}
	return StatusWrong, nil
}

// Statuses returns QuestionStatus for every index.
func (s *Session) Statuses() []Status {
	out := make([]Status, len(s.Questions))
	for i := range s.Questions {
		out[i], _ = s.QuestionStatus(i)
	}
	return out
}

func (s *Session) CurrentQuestion() models.Question {
	return s.Questions[s.CurrentIndex]
}

func (s *Session) ProgressSummary() Progress {
	p := Progress{Total: len(s.Questions), Finished: s.Finished}
	correct := 0
	for index, rec := range s.Answers {
		if !s.inRange(index) || rec.Empty() {
			continue
		}
		p.Answered++
		if rec.IsCorrect && s.Questions[index].Type != models.HTMLField {
			correct++
		}
	}
	if s.Revealing() {
		p.Correct = &correct
	}
	if s.Finished {
		score := s.Score
		p.Score = &score
	}
	return p
}

func (s *Session) IsFinished() bool {
	return s.Finished
}

func (s *Session) FinalScore() int {
	return s.Score
}

// Timed reports whether a countdown is configured.
func (s *Session) Timed() bool {
	return s.TimeRemaining != nil
}

func (s *Session) clockRunning() bool {
	return s.Timed() && !s.Finished && s.Mode != ModeReviewing
}

// Tick consumes one second of the countdown. It returns true when this tick
// forced the attempt to finish.
func (s *Session) Tick() bool {
	if !s.clockRunning() {
		return false
	}
	if *s.TimeRemaining > 0 {
		*s.TimeRemaining--
	}
	if *s.TimeRemaining == 0 {
		s.TimedOut = s.Finish()
		return s.TimedOut
	}
	return false
}

// AdvanceTo applies the whole seconds elapsed since the last clock sync.
// Seconds spent reviewing or after finishing are discarded.
func (s *Session) AdvanceTo(now time.Time) bool {
	elapsed := int(now.Sub(s.ClockedAt) / time.Second)
	if elapsed <= 0 {
		return false
	}
	s.ClockedAt = s.ClockedAt.Add(time.Duration(elapsed) * time.Second)
	if !s.clockRunning() {
		return false
	}
	if elapsed >= *s.TimeRemaining {
		*s.TimeRemaining = 1
	} else {
		*s.TimeRemaining -= elapsed - 1
	}
	return s.Tick()
}

// Deadline returns the wall-clock moment the countdown would reach zero if it
// keeps running, or zero time when the clock is stopped.
func (s *Session) Deadline() time.Time {
	if !s.clockRunning() {
		return time.Time{}
	}
	return s.ClockedAt.Add(time.Duration(*s.TimeRemaining) * time.Second)
}

func toggle(selected []string, key string) []string {
	for i, k := range selected {
		if k == key {
			out := append([]string(nil), selected[:i]...)
			return append(out, selected[i+1:]...)
		}
	}
	return append(append([]string(nil), selected...), key)
}

func sameSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, k := range a {
		left[strings.ToUpper(k)] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, k := range b {
		right[strings.ToUpper(k)] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for k := range left {
		if _, ok := right[k]; !ok {
			return false
		}
	}
	return true
}

func acceptsText(accepted []string, text string) bool {
	given := strings.ToLower(strings.TrimSpace(text))
	if given == "" {
		return false
	}
	for _, a := range accepted {
		if strings.ToLower(strings.TrimSpace(a)) == given {
			return true
		}
	}
	return false
}
