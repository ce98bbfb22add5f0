package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/quiz"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks the authoring rules of a single question on top
// of what a quiz session needs to be playable.
func (v *QuestionValidator) ValidateQuestion(index int, q models.Question) ValidationErrors {
	field := fmt.Sprintf("questions[%d]", index)
	errs := prefix(quiz.ValidateQuestions([]models.Question{q}), "questions[0]", field)

	for key, text := range q.Options {
		if !isOptionKey(key) {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(field+".options", "unknown option key", "option_key", key))
			continue
		}
		if strings.TrimSpace(text) == "" {
			errs = append(errs, *apperrors.NewValidationError(field+".options."+key, "must not be blank", nil))
		}
	}

	switch q.Type {
	case models.MultipleChoiceSingle, models.MultipleChoiceMultiple:
		if len(q.Options) < 2 {
			errs = append(errs, *apperrors.NewValidationError(field+".options", "must have at least two options", len(q.Options)))
		}
	case models.TrueFalse:
		if len(q.Options) != 2 || !q.HasOption("A") || !q.HasOption("B") {
			errs = append(errs, *apperrors.NewValidationError(field+".options", "true_false questions use exactly options A and B", q.Options))
		}
	case models.ShortAnswer, models.HTMLField:
		if len(q.Options) > 0 {
			errs = append(errs, *apperrors.NewValidationError(field+".options", "must be empty for this question type", q.Type))
		}
	}
	return errs
}

// ValidateBatch validates a full question list
func (v *QuestionValidator) ValidateBatch(questions []models.Question) error {
	var errs ValidationErrors
	for i, q := range questions {
		errs = append(errs, v.ValidateQuestion(i, q)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Normalize uppercases answer keys and fills the fixed true/false options.
func (v *QuestionValidator) Normalize(q models.Question) models.Question {
	q = q.Clone()
	q.Text = strings.TrimSpace(q.Text)
	if q.Type == models.TrueFalse && len(q.Options) == 0 {
		q.Options = map[string]string{"A": models.TrueFalseOptions["A"], "B": models.TrueFalseOptions["B"]}
	}
	if len(q.Options) > 0 {
		options := make(map[string]string, len(q.Options))
		for k, text := range q.Options {
			options[strings.ToUpper(strings.TrimSpace(k))] = text
		}
		q.Options = options
	}
	for i, k := range q.CorrectAnswers {
		q.CorrectAnswers[i] = strings.ToUpper(strings.TrimSpace(k))
	}
	return q
}

func isOptionKey(key string) bool {
	for _, k := range models.OptionKeys {
		if k == key {
			return true
		}
	}
	return false
}

func prefix(errs ValidationErrors, from, to string) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, e := range errs {
		e.Field = to + strings.TrimPrefix(e.Field, from)
		out = append(out, e)
	}
	return out
}
