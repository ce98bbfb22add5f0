package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	BaseHandler
	historyService services.HistoryService
}

func NewHistoryHandler(historyService services.HistoryService, logger utils.Logger) *HistoryHandler {
	return &HistoryHandler{
		BaseHandler:    NewBaseHandler(logger),
		historyService: historyService,
	}
}

// ListHistory lists the caller's completed attempts
// @Summary List attempt history
// @Tags history
// @Produce json
// @Param dump_id query int false "Only attempts of this dump"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.HistoryListResponse
// @Router /history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var filters repositories.HistoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}
	filters.Limit, filters.Offset = pageWindow(c)

	history, err := h.historyService.List(c.Request.Context(), filters, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	detail, err := h.historyService.Get(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *HistoryHandler) DeleteHistory(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.historyService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
