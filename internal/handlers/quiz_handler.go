package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

type StartSessionRequest struct {
	DumpID uint `json:"dump_id"`
}

// StartSession begins a practice session on a dump
// @Summary Start quiz session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body StartSessionRequest true "Dump to practice"
// @Success 201 {object} services.SessionView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *QuizHandler) StartSession(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req StartSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.DumpID == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", nil,
			services.ValidationErrors{*services.NewValidationError("dump_id", "is required", nil)})
		return
	}

	h.LogRequest(c, "Starting quiz session", "dump_id", req.DumpID)

	view, err := h.quizService.Start(c.Request.Context(), req.DumpID, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListSessions returns the caller's unfinished sessions
func (h *QuizHandler) ListSessions(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	sessions, err := h.quizService.ListActive(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns the current state. A countdown that ran out since the
// last request finishes the session here.
// @Summary Get quiz session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *QuizHandler) GetSession(c *gin.Context) {
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.Get(ctx, id, caller)
	})
}

// SelectOption picks (or toggles, for multiple choice) an option key
// @Summary Select an option
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.SelectOptionRequest true "Question index and option key"
// @Success 200 {object} services.SessionView
// @Router /sessions/{id}/select [post]
func (h *QuizHandler) SelectOption(c *gin.Context) {
	var req services.SelectOptionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.SelectOption(ctx, id, &req, caller)
	})
}

func (h *QuizHandler) SetShortAnswer(c *gin.Context) {
	var req services.TextAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.SetShortAnswer(ctx, id, &req, caller)
	})
}

func (h *QuizHandler) SetHTMLField(c *gin.Context) {
	var req services.TextAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.SetHTMLField(ctx, id, &req, caller)
	})
}

// Navigate moves to the next, previous or a given question
// @Summary Navigate
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.NavigateRequest true "next, previous or jump with index"
// @Success 200 {object} services.SessionView
// @Router /sessions/{id}/navigate [post]
func (h *QuizHandler) Navigate(c *gin.Context) {
	var req services.NavigateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.Navigate(ctx, id, &req, caller)
	})
}

func (h *QuizHandler) Finish(c *gin.Context) {
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.Finish(ctx, id, caller)
	})
}

func (h *QuizHandler) EnterReview(c *gin.Context) {
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.EnterReview(ctx, id, caller)
	})
}

func (h *QuizHandler) ExitReview(c *gin.Context) {
	h.run(c, func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error) {
		return h.quizService.ExitReview(ctx, id, caller)
	})
}

// AbandonSession drops a session without recording history
func (h *QuizHandler) AbandonSession(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.quizService.Abandon(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// run resolves the caller and session id, then answers with the view op returns
func (h *QuizHandler) run(c *gin.Context, op func(ctx context.Context, id string, caller *auth.Identity) (*services.SessionView, error)) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := op(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
