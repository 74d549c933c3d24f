package report

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitbuddy/pkg/middleware"
	"github.com/fkhayef/splitbuddy/pkg/request"
	"github.com/fkhayef/splitbuddy/pkg/response"
)

const (
	contentTypeCSV = "text/csv"
	contentTypePDF = "application/pdf"
)

// Handler handles HTTP requests for reports
type Handler struct {
	service *Service
}

// NewHandler creates a new report handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for report endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/groups/{groupId}/summary", h.GroupSummary)
	r.Get("/groups/{groupId}/summary.csv", h.GroupSummaryCSV)
	r.Get("/groups/{groupId}/summary.pdf", h.GroupSummaryPDF)

	r.Get("/users/{userId}/monthly", h.Monthly)
	r.Get("/users/{userId}/summary.csv", h.UserSummaryCSV)
	r.Get("/users/{userId}/summary.pdf", h.UserSummaryPDF)

	return r
}

// writeError maps service errors to HTTP responses
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Access denied")
	case errors.Is(err, ErrInvalidMonth):
		response.BadRequest(w, err.Error())
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

// params reads the caller and the named UUID path parameter
func params(w http.ResponseWriter, r *http.Request, name string) (id, userID string, ok bool) {
	id, err := request.ID(r, name)
	if err != nil {
		response.BadRequest(w, "Invalid "+name)
		return "", "", false
	}
	userID, ok = caller(w, r)
	return id, userID, ok
}

func (h *Handler) groupSummary(w http.ResponseWriter, r *http.Request) (*GroupSummary, bool) {
	groupID, userID, ok := params(w, r, "groupId")
	if !ok {
		return nil, false
	}
	sum, err := h.service.GroupSummary(r.Context(), groupID, userID)
	if err != nil {
		writeError(w, err, "Failed to build group summary")
		return nil, false
	}
	return sum, true
}

func (h *Handler) userSummary(w http.ResponseWriter, r *http.Request) (*UserSummary, bool) {
	userID, callerID, ok := params(w, r, "userId")
	if !ok {
		return nil, false
	}
	sum, err := h.service.UserSummary(r.Context(), callerID, userID)
	if err != nil {
		writeError(w, err, "Failed to build user summary")
		return nil, false
	}
	return sum, true
}

// GroupSummary handles GET /reports/groups/{groupId}/summary
// @Summary      Group summary report
// @Description  Total spend with breakdowns by category and by payer
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupSummaryResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /reports/groups/{groupId}/summary [get]
func (h *Handler) GroupSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.groupSummary(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, sum.ToResponse())
}

// GroupSummaryCSV handles GET /reports/groups/{groupId}/summary.csv
// @Summary      Group summary report (CSV)
// @Tags         reports
// @Produce      text/csv
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Success      200 {file} file
// @Router       /reports/groups/{groupId}/summary.csv [get]
func (h *Handler) GroupSummaryCSV(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.groupSummary(w, r)
	if !ok {
		return
	}
	body, err := GroupCSV(sum)
	if err != nil {
		response.InternalError(w, "Failed to render report")
		return
	}
	response.File(w, contentTypeCSV, "group_"+sum.GroupID+"_summary.csv", body)
}

// GroupSummaryPDF handles GET /reports/groups/{groupId}/summary.pdf
// @Summary      Group summary report (PDF)
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Success      200 {file} file
// @Router       /reports/groups/{groupId}/summary.pdf [get]
func (h *Handler) GroupSummaryPDF(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.groupSummary(w, r)
	if !ok {
		return
	}
	body, err := GroupPDF(sum)
	if err != nil {
		response.InternalError(w, "Failed to render report")
		return
	}
	response.File(w, contentTypePDF, "group_"+sum.GroupID+"_summary.pdf", body)
}

// Monthly handles GET /reports/users/{userId}/monthly?month=YYYY-MM
// @Summary      User monthly totals
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Param        month query string true "YYYY-MM"
// @Success      200 {object} response.APIResponse{data=MonthlyResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /reports/users/{userId}/monthly [get]
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, callerID, ok := params(w, r, "userId")
	if !ok {
		return
	}

	totals, err := h.service.Monthly(r.Context(), callerID, userID, r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err, "Failed to build monthly report")
		return
	}
	response.JSON(w, http.StatusOK, totals.ToResponse())
}

// UserSummaryCSV handles GET /reports/users/{userId}/summary.csv
// @Summary      User summary (CSV)
// @Tags         reports
// @Produce      text/csv
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Success      200 {file} file
// @Failure      403 {object} response.APIResponse
// @Router       /reports/users/{userId}/summary.csv [get]
func (h *Handler) UserSummaryCSV(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.userSummary(w, r)
	if !ok {
		return
	}
	body, err := UserCSV(sum)
	if err != nil {
		response.InternalError(w, "Failed to render report")
		return
	}
	response.File(w, contentTypeCSV, "user_"+sum.UserID+"_summary.csv", body)
}

// UserSummaryPDF handles GET /reports/users/{userId}/summary.pdf
// @Summary      User summary (PDF)
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Success      200 {file} file
// @Failure      403 {object} response.APIResponse
// @Router       /reports/users/{userId}/summary.pdf [get]
func (h *Handler) UserSummaryPDF(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.userSummary(w, r)
	if !ok {
		return
	}
	body, err := UserPDF(sum)
	if err != nil {
		response.InternalError(w, "Failed to render report")
		return
	}
	response.File(w, contentTypePDF, "user_"+sum.UserID+"_summary.pdf", body)
}
