package settlement

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/splitbuddy/pkg/middleware"
	"github.com/fkhayef/splitbuddy/pkg/request"
	"github.com/fkhayef/splitbuddy/pkg/response"
)

// Handler handles HTTP requests for balances and settlements
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)
	r.Get("/users/{userId}/balance", h.UserBalance)

	r.Route("/group/{groupId}", func(r chi.Router) {
		r.Post("/", h.Record)
		r.Get("/", h.ListByGroup)
		r.Get("/balances", h.GroupBalances)
		r.Get("/suggest", h.Suggest)
		r.Post("/suggest", h.Suggest)
	})

	return r
}

// writeError maps service errors to HTTP responses
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSettlementNotFound), errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Access denied")
	case errors.Is(err, ErrSelfSettlement), errors.Is(err, ErrNotGroupMember), errors.Is(err, ErrInvalidAmount):
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

func groupID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.ID(r, "groupId")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return "", false
	}
	return id, true
}

// Record handles POST /settlements/group/{groupId}
// @Summary      Record settlements
// @Description  Record one or more payments between group members in a single batch
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Param        request body RecordSettlementsRequest true "Payments"
// @Success      201 {object} response.APIResponse{data=RecordResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/group/{groupId} [post]
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req RecordSettlementsRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	items, err := h.service.Record(r.Context(), gid, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to record settlements")
		return
	}

	out := make([]*SettlementResponse, len(items))
	for i, s := range items {
		out[i] = s.ToResponse()
	}
	response.JSON(w, http.StatusCreated, RecordResponse{
		Message:     "Settlements recorded",
		Count:       len(out),
		Settlements: out,
	})
}

// ListByGroup handles GET /settlements/group/{groupId}
// @Summary      List settlements for a group
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	page, perPage := request.Pagination(r)
	items, total, err := h.service.ListByGroup(r.Context(), gid, userID, page, perPage)
	if err != nil {
		writeError(w, err, "Failed to list settlements")
		return
	}

	out := make([]*SettlementResponse, len(items))
	for i, s := range items {
		out[i] = s.ToResponse()
	}
	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	s, err := h.service.GetByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to get settlement")
		return
	}
	response.JSON(w, http.StatusOK, s.ToResponse())
}

// GroupBalances handles GET /settlements/group/{groupId}/balances
// @Summary      Group balances
// @Description  Net position of every participant: positive means they are owed money
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupBalancesResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/group/{groupId}/balances [get]
func (h *Handler) GroupBalances(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	entries, err := h.service.GroupBalances(r.Context(), gid, userID)
	if err != nil {
		writeError(w, err, "Failed to compute balances")
		return
	}

	out := &GroupBalancesResponse{GroupID: gid, Balances: make([]*BalanceResponse, len(entries))}
	for i, e := range entries {
		out.Balances[i] = toBalanceResponse(e)
	}
	response.JSON(w, http.StatusOK, out)
}

// Suggest handles GET and POST /settlements/group/{groupId}/suggest
// @Summary      Suggest settlements
// @Description  Payments that would bring every balance in the group to zero
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=SuggestionsResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/group/{groupId}/suggest [post]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	suggestions, err := h.service.Suggest(r.Context(), gid, userID)
	if err != nil {
		writeError(w, err, "Failed to suggest settlements")
		return
	}

	out := &SuggestionsResponse{GroupID: gid, Suggestions: make([]*SuggestionResponse, len(suggestions))}
	for i, s := range suggestions {
		out.Suggestions[i] = toSuggestionResponse(s)
	}
	response.JSON(w, http.StatusOK, out)
}

// UserBalance handles GET /settlements/users/{userId}/balance
// @Summary      User balance
// @Description  The caller's net position across all groups, or in one group
// @Tags         settlements
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Param        group_id query string false "Restrict to one group"
// @Success      200 {object} response.APIResponse{data=UserBalanceResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/users/{userId}/balance [get]
func (h *Handler) UserBalance(w http.ResponseWriter, r *http.Request) {
	uid, err := request.ID(r, "userId")
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var gid string
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid group ID")
			return
		}
		gid = parsed.String()
	}

	e, err := h.service.UserBalance(r.Context(), userID, uid, gid)
	if err != nil {
		writeError(w, err, "Failed to compute balance")
		return
	}
	response.JSON(w, http.StatusOK, UserBalanceResponse{
		UserID:  uid,
		GroupID: gid,
		Paid:    e.Paid.InexactFloat64(),
		Owed:    e.Owed.InexactFloat64(),
		Balance: e.Balance.InexactFloat64(),
	})
}
