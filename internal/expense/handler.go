package expense

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitbuddy/internal/expense/split"
	"github.com/fkhayef/splitbuddy/internal/storage"
	"github.com/fkhayef/splitbuddy/pkg/middleware"
	"github.com/fkhayef/splitbuddy/pkg/request"
	"github.com/fkhayef/splitbuddy/pkg/response"
)

// maxUploadSize caps receipt uploads
const maxUploadSize = 10 << 20

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/categories", h.Categories)
	r.Get("/mine", h.ListMySplits)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Group-based listing
	r.Get("/group/{groupId}", h.ListByGroup)

	// Split operations
	r.Get("/{id}/splits", h.ListSplits)
	r.Post("/{id}/splits", h.AddSplit)
	r.Post("/{id}/split/preview", h.PreviewSplit)
	r.Put("/{id}/split", h.CommitSplit)

	// Receipts
	r.Post("/{id}/attachments", h.UploadAttachment)
	r.Get("/{id}/attachments", h.ListAttachments)

	return r
}

func isSplitError(err error) bool {
	return errors.Is(err, split.ErrNoParticipants) ||
		errors.Is(err, split.ErrInvalidPercentSum) ||
		errors.Is(err, split.ErrInvalidShareTotal) ||
		errors.Is(err, split.ErrSumMismatch) ||
		errors.Is(err, split.ErrInvalidMode)
}

// writeError maps service errors to HTTP responses
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case isSplitError(err):
		response.ValidationError(w, err.Error())
	case errors.Is(err, ErrExpenseNotFound), errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Not a member of this group")
	case errors.Is(err, ErrNotGroupMember), errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidSort), errors.Is(err, ErrEmptyFile):
		response.BadRequest(w, err.Error())
	case errors.Is(err, storage.ErrNotConfigured):
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// caller returns the authenticated user, writing a 401 when there is none
func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
	}
	return userID, ok
}

// expenseID parses the {id} path parameter, writing a 400 when it is malformed
func expenseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return "", false
	}
	return id, true
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Record an expense in a group, paid by the caller
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, e.ToResponse())
}

// Categories handles GET /expenses/categories
// @Summary      List built-in categories
// @Tags         expenses
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Category}
// @Router       /expenses/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, Categories)
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with all its splits
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	e, splits, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to get expense")
		return
	}

	resp := e.ToResponse()
	resp.Splits = make([]*SplitResponse, len(splits))
	for i, s := range splits {
		resp.Splits[i] = s.ToResponse()
	}

	response.JSON(w, http.StatusOK, resp)
}

// Update handles PATCH /expenses/{id}
// @Summary      Update an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Param        request body UpdateExpenseRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Router       /expenses/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.service.Update(r.Context(), id, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to update expense")
		return
	}

	response.JSON(w, http.StatusOK, e.ToResponse())
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  Delete an expense together with its splits and receipts
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List expenses for a group
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Param        sort query string false "date_desc or date_asc"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := request.ID(r, "groupId")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	page, perPage := request.Pagination(r)
	expenses, total, err := h.service.ListByGroup(r.Context(), groupID, userID, r.URL.Query().Get("sort"), page, perPage)
	if err != nil {
		writeError(w, err, "Failed to list expenses")
		return
	}

	out := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = e.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// ListMySplits handles GET /expenses/mine
// @Summary      List my splits
// @Description  Every split the caller owes, across all groups
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SplitResponse}
// @Router       /expenses/mine [get]
func (h *Handler) ListMySplits(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	page, perPage := request.Pagination(r)
	splits, total, err := h.service.ListUserSplits(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list splits")
		return
	}

	out := make([]*SplitResponse, len(splits))
	for i, s := range splits {
		out[i] = s.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// ListSplits handles GET /expenses/{id}/splits
// @Summary      List splits for an expense
// @Tags         splits
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse{data=[]SplitResponse}
// @Router       /expenses/{id}/splits [get]
func (h *Handler) ListSplits(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	splits, err := h.service.ListSplits(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to list splits")
		return
	}

	out := make([]*SplitResponse, len(splits))
	for i, s := range splits {
		out[i] = s.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}

// AddSplit handles POST /expenses/{id}/splits
// @Summary      Add a split to an expense
// @Tags         splits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Param        request body AddSplitRequest true "Split line"
// @Success      201 {object} response.APIResponse{data=SplitResponse}
// @Router       /expenses/{id}/splits [post]
func (h *Handler) AddSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req AddSplitRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	s, err := h.service.AddSplit(r.Context(), id, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to add split")
		return
	}

	response.JSON(w, http.StatusCreated, s.ToResponse())
}

// PreviewSplit handles POST /expenses/{id}/split/preview
// @Summary      Preview split calculation
// @Description  Compute an equal, percent, shares or exact split without saving it
// @Tags         splits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Param        request body SplitPreviewRequest true "Mode and participants"
// @Success      200 {object} response.APIResponse{data=SplitPreviewResponse}
// @Failure      422 {object} response.APIResponse
// @Router       /expenses/{id}/split/preview [post]
func (h *Handler) PreviewSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req SplitPreviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	total, allocs, err := h.service.Preview(r.Context(), id, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to preview split")
		return
	}

	response.JSON(w, http.StatusOK, toPreviewResponse(total, allocs))
}

// CommitSplit handles PUT /expenses/{id}/split
// @Summary      Commit split items for an expense
// @Description  Replaces every split of the expense in one transaction
// @Tags         splits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Param        request body SplitCommitRequest true "Split lines or mode and participants"
// @Success      200 {object} response.APIResponse{data=CommitResponse}
// @Failure      422 {object} response.APIResponse
// @Router       /expenses/{id}/split [put]
func (h *Handler) CommitSplit(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req SplitCommitRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	splits, err := h.service.Commit(r.Context(), id, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to commit splits")
		return
	}

	response.JSON(w, http.StatusOK, CommitResponse{Message: "Splits committed", Count: len(splits)})
}

// UploadAttachment handles POST /expenses/{id}/attachments
// @Summary      Attach a receipt
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Param        file formData file true "Receipt file"
// @Success      201 {object} response.APIResponse{data=AttachmentResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      503 {object} response.APIResponse
// @Router       /expenses/{id}/attachments [post]
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	a, err := h.service.Upload(r.Context(), id, userID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, err, "Failed to upload attachment")
		return
	}

	response.JSON(w, http.StatusCreated, a.ToResponse())
}

// ListAttachments handles GET /expenses/{id}/attachments
// @Summary      List receipts
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse{data=[]AttachmentResponse}
// @Router       /expenses/{id}/attachments [get]
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	attachments, err := h.service.ListAttachments(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to list attachments")
		return
	}

	out := make([]*AttachmentResponse, len(attachments))
	for i, a := range attachments {
		out[i] = a.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}
