package models

import "strings"

type QuestionType string

const (
	MultipleChoiceSingle   QuestionType = "multiple_choice_single"
	MultipleChoiceMultiple QuestionType = "multiple_choice_multiple"
	TrueFalse              QuestionType = "true_false"
	ShortAnswer            QuestionType = "short_answer"
	HTMLField              QuestionType = "html_field"
)

// OptionKeys lists the option slots in display order.
var OptionKeys = []string{"A", "B", "C", "D"}

// TrueFalseOptions is the fixed option map of a true_false question.
var TrueFalseOptions = map[string]string{"A": "True", "B": "False"}

// Question is one evaluable unit of a dump. It is stored inline in the
// dump's questions column, so it carries json tags only.
type Question struct {
	ID              string            `json:"id"`
	Type            QuestionType      `json:"type" validate:"required,question_type"`
	Text            string            `json:"text" validate:"required"`
	Options         map[string]string `json:"options,omitempty"`
	CorrectAnswers  []string          `json:"correct_answers,omitempty"`
	AcceptedAnswers []string          `json:"accepted_answers,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
}

// IsChoice reports whether the question is answered by picking option keys.
func (t QuestionType) IsChoice() bool {
	return t == MultipleChoiceSingle || t == MultipleChoiceMultiple || t == TrueFalse
}

// IsSingleSelect reports whether at most one option may be selected.
func (t QuestionType) IsSingleSelect() bool {
	return t == MultipleChoiceSingle || t == TrueFalse
}

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoiceSingle, MultipleChoiceMultiple, TrueFalse, ShortAnswer, HTMLField:
		return true
	}
	return false
}

// HasOption reports whether key names a non-empty option.
func (q Question) HasOption(key string) bool {
	_, ok := q.Options[strings.ToUpper(key)]
	return ok
}

// Clone returns a deep copy so callers can edit without aliasing the dump.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = make(map[string]string, len(q.Options))
		for k, v := range q.Options {
			out.Options[k] = v
		}
	}
	out.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	out.AcceptedAnswers = append([]string(nil), q.AcceptedAnswers...)
	return out
}

// AnswerRecord is the recorded answer for one question index of an attempt.
type AnswerRecord struct {
	Selected  []string `json:"selected,omitempty"`
	Text      string   `json:"text,omitempty"`
	HTML      string   `json:"html,omitempty"`
	IsCorrect bool     `json:"is_correct"`
}

// Empty reports whether the record holds no user input.
func (a AnswerRecord) Empty() bool {
	return len(a.Selected) == 0 && strings.TrimSpace(a.Text) == "" && strings.TrimSpace(a.HTML) == ""
}
