package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
	"github.com/SAP-F-2025/dump-practice-service/internal/services"
	"github.com/SAP-F-2025/dump-practice-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type DumpHandler struct {
	BaseHandler
	dumpService   services.DumpService
	importService services.ImportExportService
}

func NewDumpHandler(dumpService services.DumpService, importService services.ImportExportService, logger utils.Logger) *DumpHandler {
	return &DumpHandler{
		BaseHandler:   NewBaseHandler(logger),
		dumpService:   dumpService,
		importService: importService,
	}
}

// CreateDump creates a dump from a JSON body
// @Summary Create dump
// @Tags dumps
// @Accept json
// @Produce json
// @Param dump body services.CreateDumpRequest true "Dump data"
// @Success 201 {object} services.DumpResponse
// @Failure 400 {object} ErrorResponse
// @Router /dumps [post]
func (h *DumpHandler) CreateDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req services.CreateDumpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating dump", "name", req.Name, "questions", len(req.Questions))

	dump, err := h.dumpService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dump)
}

// GetDump returns a dump with its questions. Answer keys are only included
// for callers who may edit the dump.
// @Summary Get dump
// @Tags dumps
// @Produce json
// @Param id path uint true "Dump ID"
// @Success 200 {object} services.DumpResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /dumps/{id} [get]
func (h *DumpHandler) GetDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	dump, err := h.dumpService.Get(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dump)
}

// ListDumps lists the dumps visible to the caller
// @Summary List dumps
// @Tags dumps
// @Produce json
// @Param scope query string false "mine, public or shared"
// @Param search query string false "Name filter"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.DumpListResponse
// @Router /dumps [get]
func (h *DumpHandler) ListDumps(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var filters repositories.DumpFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}
	filters.Limit, filters.Offset = pageWindow(c)

	dumps, err := h.dumpService.List(c.Request.Context(), filters, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dumps)
}

func (h *DumpHandler) UpdateDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.UpdateDumpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	dump, err := h.dumpService.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dump)
}

func (h *DumpHandler) DeleteDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.dumpService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== QUESTION AUTHORING =====

func (h *DumpHandler) AddQuestion(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	var question models.Question
	if !h.bindJSON(c, &question) {
		return
	}

	added, err := h.dumpService.AddQuestion(c.Request.Context(), id, &question, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, added)
}

func (h *DumpHandler) UpdateQuestion(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}
	var question models.Question
	if !h.bindJSON(c, &question) {
		return
	}

	updated, err := h.dumpService.UpdateQuestion(c.Request.Context(), id, questionID, &question, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *DumpHandler) DeleteQuestion(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	if err := h.dumpService.DeleteQuestion(c.Request.Context(), id, questionID, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== SHARING =====

// ShareDump grants a group read or edit access
// @Summary Share dump with a group
// @Tags dumps
// @Accept json
// @Produce json
// @Param id path uint true "Dump ID"
// @Param share body services.ShareDumpRequest true "Share data"
// @Success 201 {object} models.DumpShare
// @Router /dumps/{id}/shares [post]
func (h *DumpHandler) ShareDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req services.ShareDumpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	share, err := h.dumpService.Share(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, share)
}

func (h *DumpHandler) UnshareDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	groupID := ParseIDParam(c, "group_id")
	if groupID == 0 {
		return
	}

	if err := h.dumpService.Unshare(c.Request.Context(), id, groupID, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *DumpHandler) GetShares(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	shares, err := h.dumpService.GetShares(c.Request.Context(), id, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, shares)
}

// ===== IMPORT / EXPORT =====

// importNewForm carries the dump fields of a create-from-file upload
type importNewForm struct {
	Name                  string `form:"name"`
	Description           string `form:"description"`
	IsPublic              bool   `form:"is_public"`
	TimeLimit             int    `form:"time_limit"`
	ShowAnswerImmediately bool   `form:"show_answer_immediately"`
	CategoryID            *uint  `form:"category_id"`
}

// ImportQuestions reconciles an uploaded spreadsheet with the dump. With the
// default detect policy and duplicates present nothing is written and the
// report comes back with applied=false.
// @Summary Import questions into a dump
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Dump ID"
// @Param file formData file true "xlsx or csv file"
// @Param policy formData string false "detect, skip, replace or merge"
// @Success 200 {object} services.ImportResponse
// @Failure 400 {object} ErrorResponse
// @Router /dumps/{id}/import [post]
func (h *DumpHandler) ImportQuestions(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}
	upload, closeFile, ok := h.readUpload(c)
	if !ok {
		return
	}
	defer closeFile()

	h.LogRequest(c, "Importing questions", "dump_id", id, "filename", upload.Filename, "policy", upload.Policy)

	resp, err := h.importService.Import(c.Request.Context(), id, upload, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ImportNewDump creates a dump straight from an uploaded spreadsheet
func (h *DumpHandler) ImportNewDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var form importNewForm
	if err := c.ShouldBind(&form); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid form data", err, err.Error())
		return
	}
	upload, closeFile, ok := h.readUpload(c)
	if !ok {
		return
	}
	defer closeFile()

	req := &services.CreateDumpRequest{
		Name:                  form.Name,
		IsPublic:              form.IsPublic,
		TimeLimit:             form.TimeLimit,
		ShowAnswerImmediately: form.ShowAnswerImmediately,
		CategoryID:            form.CategoryID,
	}
	if form.Description != "" {
		req.Description = &form.Description
	}

	resp, err := h.importService.ImportNew(c.Request.Context(), req, upload, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ExportDump downloads the questions in the importable row format
// @Summary Export dump
// @Tags import
// @Produce application/octet-stream
// @Param id path uint true "Dump ID"
// @Param format query string false "xlsx (default) or csv"
// @Router /dumps/{id}/export [get]
func (h *DumpHandler) ExportDump(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	file, err := h.importService.Export(c.Request.Context(), id, c.DefaultQuery("format", "xlsx"), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

// ListImports returns the import log of a dump
func (h *DumpHandler) ListImports(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	limit, offset := pageWindow(c)
	resp, err := h.importService.ListImports(c.Request.Context(), id, repositories.ListOptions{Limit: limit, Offset: offset}, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Import history retrieved", resp)
}

// ImportTemplate downloads an empty import file with one example row
func (h *DumpHandler) ImportTemplate(c *gin.Context) {
	file, err := h.importService.Template(c.DefaultQuery("format", "xlsx"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

func (h *DumpHandler) readUpload(c *gin.Context) (*services.ImportRequest, func(), bool) {
	header, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing upload", err, "multipart field 'file' is required")
		return nil, nil, false
	}
	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unreadable upload", err, err.Error())
		return nil, nil, false
	}

	req := &services.ImportRequest{
		File:     file,
		Filename: header.Filename,
		Format:   c.PostForm("format"),
		Policy:   c.PostForm("policy"),
	}
	return req, func() { closeUpload(file) }, true
}

func closeUpload(file multipart.File) {
	_ = file.Close()
}

func sendFile(c *gin.Context, file *services.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
