package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	BaseHandler
	groupService services.GroupService
}

func NewGroupHandler(groupService services.GroupService, logger utils.Logger) *GroupHandler {
	return &GroupHandler{
		BaseHandler:  NewBaseHandler(logger),
		groupService: groupService,
	}
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req services.CreateGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	group, err := h.groupService.Get(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// ListMyGroups returns the groups the caller belongs to
func (h *GroupHandler) ListMyGroups(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListMine(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// ListAllGroups is the admin view over every group
func (h *GroupHandler) ListAllGroups(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var opts repositories.ListOptions
	opts.Limit, opts.Offset = pageWindow(c)

	groups, err := h.groupService.ListAll(c.Request.Context(), opts, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// AddMember adds a user by id or username
// @Summary Add group member
// @Tags groups
// @Accept json
// @Produce json
// @Param id path uint true "Group ID"
// @Param member body services.AddMemberRequest true "User id or username"
// @Success 201 {object} models.GroupMember
// @Router /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.AddMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	member, err := h.groupService.AddMember(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := ParseStringIDParam(c, "user_id")
	if userID == "" {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), id, userID, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
