package quiz

import (
	"encoding/json"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			ID:             "q1",
			Type:           models.MultipleChoiceSingle,
			Text:           "Capital of France?",
			Options:        map[string]string{"A": "Berlin", "B": "Madrid", "C": "Paris", "D": "Rome"},
			CorrectAnswers: []string{"C"},
		},
		{
			ID:             "q2",
			Type:           models.MultipleChoiceMultiple,
			Text:           "Pick the primes",
			Options:        map[string]string{"A": "2", "B": "4", "C": "5", "D": "9"},
			CorrectAnswers: []string{"A", "C"},
		},
		{
			ID:             "q3",
			Type:           models.TrueFalse,
			Text:           "The earth is flat",
			Options:        map[string]string{"A": "True", "B": "False"},
			CorrectAnswers: []string{"B"},
		},
		{
			ID:              "q4",
			Type:            models.ShortAnswer,
			Text:            "Chemical symbol of gold",
			AcceptedAnswers: []string{"Au"},
		},
		{
			ID:   "q5",
			Type: models.HTMLField,
			Text: "<p>Draw a diagram</p>",
		},
	}
}

func newSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := NewSession("s1", "u1", 7, "Geography", sampleQuestions(), cfg, t0)
	require.NoError(t, err)
	return s
}

func TestNewSession_RejectsEmptyQuestionSet(t *testing.T) {
	s, err := NewSession("s1", "u1", 1, "Empty", nil, Config{}, t0)

	assert.Nil(t, s)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestNewSession_RejectsMalformedQuestions(t *testing.T) {
	tests := []struct {
		name     string
		question models.Question
	}{
		{"missing text", models.Question{Type: models.MultipleChoiceSingle, Options: map[string]string{"A": "x"}, CorrectAnswers: []string{"A"}}},
		{"answer not in options", models.Question{Type: models.MultipleChoiceSingle, Text: "q", Options: map[string]string{"A": "x"}, CorrectAnswers: []string{"B"}}},
		{"no correct answer", models.Question{Type: models.MultipleChoiceMultiple, Text: "q", Options: map[string]string{"A": "x"}}},
		{"short answer without accepted", models.Question{Type: models.ShortAnswer, Text: "q"}},
		{"unknown type", models.Question{Type: "essay", Text: "q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession("s1", "u1", 1, "Bad", []models.Question{tt.question}, Config{}, t0)
			assert.True(t, apperrors.IsValidationError(err))
		})
	}
}

func TestNewSession_TimerPresentOnlyWithPositiveLimit(t *testing.T) {
	untimed := newSession(t, Config{})
	assert.Nil(t, untimed.TimeRemaining)

	timed := newSession(t, Config{TimeLimit: 2})
	require.NotNil(t, timed.TimeRemaining)
	assert.Equal(t, 120, *timed.TimeRemaining)
}

func TestSelectOption_SingleAnswerReplacesSelection(t *testing.T) {
	s := newSession(t, Config{})

	require.NoError(t, s.SelectOption(0, "A"))
	assert.False(t, s.Answers[0].IsCorrect)

	require.NoError(t, s.SelectOption(0, "c"))
	assert.Equal(t, []string{"C"}, s.Answers[0].Selected)
	assert.True(t, s.Answers[0].IsCorrect)
}

func TestSelectOption_TrueFalse(t *testing.T) {
	s := newSession(t, Config{})

	require.NoError(t, s.SelectOption(2, "B"))
	assert.True(t, s.Answers[2].IsCorrect)
	require.NoError(t, s.SelectOption(2, "A"))
	assert.False(t, s.Answers[2].IsCorrect)
	assert.Equal(t, []string{"A"}, s.Answers[2].Selected)
}

func TestSelectOption_MultipleAnswerIsOrderIndependentSetEquality(t *testing.T) {
	s := newSession(t, Config{})

	require.NoError(t, s.SelectOption(1, "C"))
	assert.False(t, s.Answers[1].IsCorrect, "subset earns no partial credit")

	require.NoError(t, s.SelectOption(1, "A"))
	assert.True(t, s.Answers[1].IsCorrect)

	require.NoError(t, s.SelectOption(1, "B"))
	assert.False(t, s.Answers[1].IsCorrect, "superset is wrong")

	require.NoError(t, s.SelectOption(1, "B"))
	assert.True(t, s.Answers[1].IsCorrect, "toggling B off restores the exact set")
	assert.ElementsMatch(t, []string{"A", "C"}, s.Answers[1].Selected)
}

func TestSelectOption_Rejections(t *testing.T) {
	s := newSession(t, Config{})

	assert.ErrorIs(t, s.SelectOption(-1, "A"), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SelectOption(5, "A"), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SelectOption(0, "Z"), ErrUnknownOption)
	assert.ErrorIs(t, s.SelectOption(3, "A"), ErrQuestionTypeMismatch)
	assert.Empty(t, s.Answers)
}

func TestSetShortAnswer(t *testing.T) {
	s := newSession(t, Config{})

	require.NoError(t, s.SetShortAnswer(3, "  aU "))
	assert.True(t, s.Answers[3].IsCorrect)
	assert.Equal(t, "  aU ", s.Answers[3].Text)

	require.NoError(t, s.SetShortAnswer(3, "Ag"))
	assert.False(t, s.Answers[3].IsCorrect)

	assert.ErrorIs(t, s.SetShortAnswer(0, "Paris"), ErrQuestionTypeMismatch)
}

func TestSetHTMLField(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"empty", "", false},
		{"empty paragraph", "<p>  </p>", false},
		{"nbsp only", "<p>&nbsp;</p><br/>", false},
		{"text", "<p>my answer</p>", true},
		{"image", `<p><img src="data:image/png;base64,AAA"></p>`, true},
		{"image without src", "<img>", false},
		{"script only", "<script>alert(1)</script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, Config{})
			require.NoError(t, s.SetHTMLField(4, tt.html))
			assert.Equal(t, tt.want, s.Answers[4].IsCorrect)
		})
	}
}

func TestNavigation(t *testing.T) {
	s := newSession(t, Config{})

	s.GoPrevious()
	assert.Equal(t, 0, s.CurrentIndex)

	s.GoNext()
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, "q2", s.CurrentQuestion().ID)

	require.NoError(t, s.JumpTo(4))
	assert.ErrorIs(t, s.JumpTo(5), ErrIndexOutOfRange)
	assert.Equal(t, 4, s.CurrentIndex)

	require.NoError(t, s.SelectOption(0, "C"))
	s.GoNext()
	assert.True(t, s.IsFinished(), "next on the last question finishes")
	assert.Equal(t, 1, s.FinalScore())
}

func TestFinish_ScoresOnlyCorrectRecordedAnswers(t *testing.T) {
	s := newSession(t, Config{})
	require.NoError(t, s.SelectOption(0, "C"))
	require.NoError(t, s.SelectOption(2, "A"))
	require.NoError(t, s.SetShortAnswer(3, "au"))
	require.NoError(t, s.SetHTMLField(4, "<p>done</p>"))

	assert.True(t, s.Finish())
	assert.False(t, s.Finish(), "finish happens exactly once")
	assert.Equal(t, 3, s.FinalScore())

	require.NoError(t, s.SelectOption(2, "B"))
	assert.False(t, s.Answers[2].IsCorrect, "answers are locked after finishing")
}

func TestEnterReview_LocksAnswersAndIsIdempotent(t *testing.T) {
	s := newSession(t, Config{})
	require.NoError(t, s.SelectOption(0, "A"))
	require.NoError(t, s.JumpTo(3))

	s.EnterReview()
	first, err := json.Marshal(s)
	require.NoError(t, err)
	s.EnterReview()
	second, err := json.Marshal(s)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, ModeReviewing, s.Mode)

	require.NoError(t, s.SelectOption(0, "C"))
	require.NoError(t, s.SetShortAnswer(3, "Au"))
	assert.Equal(t, []string{"A"}, s.Answers[0].Selected)
	_, answered := s.Answers[3]
	assert.False(t, answered)

	assert.False(t, s.Finish(), "finish is not valid while reviewing")
}

func TestGoNext_LeavesReviewAtLastQuestion(t *testing.T) {
	s := newSession(t, Config{})
	s.Finish()
	s.EnterReview()
	require.NoError(t, s.JumpTo(4))

	s.GoNext()
	assert.Equal(t, ModeAnswering, s.Mode)
	assert.True(t, s.IsFinished())
}

func TestExitReview_KeepsAnswersLocked(t *testing.T) {
	s := newSession(t, Config{TimeLimit: 10})
	require.NoError(t, s.SelectOption(0, "A"))
	st, _ := s.QuestionStatus(0)
	assert.Equal(t, StatusAnswered, st)

	s.EnterReview()
	st, _ = s.QuestionStatus(0)
	assert.Equal(t, StatusWrong, st)

	s.ExitReview()
	assert.Equal(t, ModeAnswering, s.Mode)
	require.NoError(t, s.SelectOption(0, "C"))
	require.NoError(t, s.SetShortAnswer(3, "Au"))
	require.NoError(t, s.SetHTMLField(4, "<p>x</p>"))
	assert.Equal(t, []string{"A"}, s.Answers[0].Selected)
	assert.Len(t, s.Answers, 1)

	st, _ = s.QuestionStatus(0)
	assert.Equal(t, StatusAnswered, st, "exam mode hides correctness again after review")

	assert.True(t, s.Finish())
	assert.Equal(t, 0, s.FinalScore())
}

func TestQuestionStatus(t *testing.T) {
	t.Run("exam mode never reveals correctness", func(t *testing.T) {
		s := newSession(t, Config{})
		require.NoError(t, s.SelectOption(0, "A"))
		require.NoError(t, s.SelectOption(2, "B"))

		assert.Equal(t, []Status{StatusAnswered, StatusUnanswered, StatusAnswered, StatusUnanswered, StatusUnanswered}, s.Statuses())
	})

	t.Run("immediate feedback reveals and tracks edits", func(t *testing.T) {
		s := newSession(t, Config{ShowAnswerImmediately: true})
		require.NoError(t, s.SelectOption(0, "A"))
		st, err := s.QuestionStatus(0)
		require.NoError(t, err)
		assert.Equal(t, StatusWrong, st)

		require.NoError(t, s.SelectOption(0, "C"))
		st, _ = s.QuestionStatus(0)
		assert.Equal(t, StatusCorrect, st)
	})

	t.Run("review reveals but html_field stays answered", func(t *testing.T) {
		s := newSession(t, Config{})
		require.NoError(t, s.SelectOption(2, "B"))
		require.NoError(t, s.SetHTMLField(4, "<p>x</p>"))
		s.Finish()
		s.EnterReview()

		assert.Equal(t, []Status{StatusUnanswered, StatusUnanswered, StatusCorrect, StatusUnanswered, StatusAnswered}, s.Statuses())
	})

	t.Run("deselected multiple answer counts as unanswered", func(t *testing.T) {
		s := newSession(t, Config{})
		require.NoError(t, s.SelectOption(1, "A"))
		require.NoError(t, s.SelectOption(1, "A"))
		st, _ := s.QuestionStatus(1)
		assert.Equal(t, StatusUnanswered, st)
	})

	t.Run("out of range", func(t *testing.T) {
		s := newSession(t, Config{})
		_, err := s.QuestionStatus(10)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestProgressSummary(t *testing.T) {
	s := newSession(t, Config{})
	require.NoError(t, s.SelectOption(0, "C"))
	require.NoError(t, s.SelectOption(1, "B"))

	p := s.ProgressSummary()
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 2, p.Answered)
	assert.Nil(t, p.Correct)
	assert.Nil(t, p.Score)

	s.Finish()
	s.EnterReview()
	p = s.ProgressSummary()
	require.NotNil(t, p.Correct)
	assert.Equal(t, 1, *p.Correct)
	require.NotNil(t, p.Score)
	assert.Equal(t, 1, *p.Score)
}

func TestProgressSummary_CorrectSkipsHTMLField(t *testing.T) {
	s := newSession(t, Config{ShowAnswerImmediately: true})
	require.NoError(t, s.SelectOption(0, "C"))
	require.NoError(t, s.SetHTMLField(4, "<p>notes</p>"))

	p := s.ProgressSummary()
	assert.Equal(t, 2, p.Answered)
	require.NotNil(t, p.Correct)
	assert.Equal(t, 1, *p.Correct)

	correct := 0
	for _, st := range s.Statuses() {
		if st == StatusCorrect {
			correct++
		}
	}
	assert.Equal(t, correct, *p.Correct)
}

func TestTick_FinishesExactlyOnceAtZero(t *testing.T) {
	s := newSession(t, Config{TimeLimit: 1})
	require.NoError(t, s.SelectOption(0, "C"))

	fired := 0
	for i := 0; i < 60; i++ {
		if s.Tick() {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	assert.True(t, s.IsFinished())
	assert.True(t, s.TimedOut)
	assert.Equal(t, 0, *s.TimeRemaining)
	assert.Equal(t, 1, s.FinalScore())

	for i := 0; i < 10; i++ {
		assert.False(t, s.Tick())
	}
}

func TestTick_SuspendedWhileReviewing(t *testing.T) {
	s := newSession(t, Config{TimeLimit: 1})
	s.Tick()
	s.EnterReview()

	for i := 0; i < 120; i++ {
		s.Tick()
	}
	assert.Equal(t, 59, *s.TimeRemaining)
	assert.False(t, s.IsFinished())

	s.ExitReview()
	s.Tick()
	assert.Equal(t, 58, *s.TimeRemaining)
}

func TestAdvanceTo(t *testing.T) {
	t.Run("consumes whole seconds", func(t *testing.T) {
		s := newSession(t, Config{TimeLimit: 1})

		assert.False(t, s.AdvanceTo(t0.Add(1500*time.Millisecond)))
		assert.Equal(t, 59, *s.TimeRemaining)
		assert.Equal(t, t0.Add(time.Second), s.ClockedAt)

		assert.False(t, s.AdvanceTo(t0.Add(1900*time.Millisecond)))
		assert.Equal(t, 59, *s.TimeRemaining)

		assert.Equal(t, t0.Add(60*time.Second), s.Deadline())
	})

	t.Run("expires once past the deadline", func(t *testing.T) {
		s := newSession(t, Config{TimeLimit: 1})

		assert.True(t, s.AdvanceTo(t0.Add(10*time.Minute)))
		assert.True(t, s.IsFinished())
		assert.Equal(t, 0, *s.TimeRemaining)
		assert.False(t, s.AdvanceTo(t0.Add(20*time.Minute)))
		assert.True(t, s.Deadline().IsZero())
	})

	t.Run("review time is discarded", func(t *testing.T) {
		s := newSession(t, Config{TimeLimit: 1})
		s.AdvanceTo(t0.Add(10 * time.Second))
		s.EnterReview()
		s.AdvanceTo(t0.Add(5 * time.Minute))
		s.ExitReview()
		s.AdvanceTo(t0.Add(5*time.Minute + 5*time.Second))

		assert.Equal(t, 45, *s.TimeRemaining)
		assert.False(t, s.IsFinished())
	})

	t.Run("untimed sessions only move the clock", func(t *testing.T) {
		s := newSession(t, Config{})
		assert.False(t, s.AdvanceTo(t0.Add(time.Hour)))
		assert.Equal(t, t0.Add(time.Hour), s.ClockedAt)
		assert.False(t, s.IsFinished())
	})
}

func TestSession_JSONRoundTripPreservesAnswers(t *testing.T) {
	s := newSession(t, Config{TimeLimit: 5, ShowAnswerImmediately: true})
	require.NoError(t, s.SelectOption(1, "A"))
	require.NoError(t, s.SelectOption(1, "C"))
	require.NoError(t, s.SetShortAnswer(3, "Au"))

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var restored Session
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.Equal(t, s.Answers, restored.Answers)
	assert.Equal(t, *s.TimeRemaining, *restored.TimeRemaining)
	assert.Equal(t, s.Statuses(), restored.Statuses())
}
