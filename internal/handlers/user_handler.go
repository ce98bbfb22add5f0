package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the admin user management routes
type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var filters repositories.UserFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}
	filters.Limit, filters.Offset = pageWindow(c)

	users, err := h.userService.List(c.Request.Context(), filters, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateRole promotes or demotes a user
// @Summary Change user role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body services.UpdateRoleRequest true "New role"
// @Success 200 {object} models.User
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.UpdateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetActive(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req setActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Active == nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", nil,
			services.ValidationErrors{*services.NewValidationError("active", "is required", nil)})
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), id, *req.Active, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
