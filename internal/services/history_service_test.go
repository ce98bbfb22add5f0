package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/quiz"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func recordedAttempt() *models.AttemptHistory {
	questions := []models.Question(practiceDump(0, false).Questions)
	questions = append(questions, models.Question{ID: "q3", Type: models.HTMLField, Text: "<p>Draw it</p>"})
	return &models.AttemptHistory{
		ID:        5,
		UserID:    takerID,
		DumpID:    7,
		DumpName:  "Geography",
		SessionID: "session-1",
		Score:     1,
		Total:     2,
		Answers: datatypes.NewJSONType(map[int]models.AnswerRecord{
			0: {Selected: []string{"B"}, IsCorrect: true},
			2: {HTML: "<svg/>"},
		}),
		Questions: datatypes.NewJSONSlice(questions),
	}
}

func TestHistoryService_GetBuildsItemStatuses(t *testing.T) {
	repo := newMockRepository()
	repo.history.On("GetByID", mock.Anything, uint(5)).Return(recordedAttempt(), nil)
	svc := NewHistoryService(repo, testLogger())

	detail, err := svc.Get(context.Background(), 5, identity(takerID))
	require.NoError(t, err)

	assert.Equal(t, 50.0, detail.Percentage)
	require.Len(t, detail.Items, 3)
	assert.Equal(t, quiz.StatusCorrect, detail.Items[0].Status)
	assert.Equal(t, quiz.StatusUnanswered, detail.Items[1].Status)
	assert.Nil(t, detail.Items[1].Answer)
	assert.Equal(t, quiz.StatusAnswered, detail.Items[2].Status)
}

func TestHistoryService_OwnerOnly(t *testing.T) {
	repo := newMockRepository()
	repo.history.On("GetByID", mock.Anything, uint(5)).Return(recordedAttempt(), nil)
	svc := NewHistoryService(repo, testLogger())

	_, err := svc.Get(context.Background(), 5, identity(ownerID))
	assert.True(t, IsForbidden(err))

	err = svc.Delete(context.Background(), 5, identity(ownerID))
	assert.True(t, IsForbidden(err))
	repo.history.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	repo.history.On("Delete", mock.Anything, uint(5)).Return(nil)
	assert.NoError(t, svc.Delete(context.Background(), 5, identity(takerID)))
}

func TestHistoryService_ListMapsSummaries(t *testing.T) {
	repo := newMockRepository()
	filters := repositories.HistoryFilters{Limit: 20}
	repo.history.On("ListByUser", mock.Anything, takerID, filters).Return([]*models.AttemptHistory{recordedAttempt()}, int64(1), nil)
	svc := NewHistoryService(repo, testLogger())

	resp, err := svc.List(context.Background(), filters, identity(takerID))
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.History, 1)
	h := resp.History[0]
	assert.Equal(t, uint(5), h.ID)
	assert.Equal(t, uint(7), h.DumpID)
	assert.Equal(t, "Geography", h.DumpName)
	assert.Equal(t, "session-1", h.SessionID)
	assert.Equal(t, 1, h.Score)
	assert.Equal(t, 2, h.Total)
	assert.Equal(t, 50.0, h.Percentage)
}
