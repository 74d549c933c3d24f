package authz

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitbuddy/pkg/middleware"
	"github.com/fkhayef/splitbuddy/pkg/request"
	"github.com/fkhayef/splitbuddy/pkg/response"
)

// IntrospectResponse describes the caller behind the bearer token
type IntrospectResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// DecisionResponse is the answer to a yes/no access question
type DecisionResponse struct {
	Allowed bool `json:"allowed"`
}

// Handler exposes the checker over HTTP for other services
type Handler struct {
	checker *Checker
}

// NewHandler creates a new authz handler
func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// Routes returns the router for authz endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/introspect", h.Introspect)
	r.Get("/groups/{id}/is-member", h.IsMember)
	r.Get("/groups/{id}/is-owner", h.IsOwner)
	r.Get("/expenses/{id}/in-group", h.ExpenseInGroup)

	return r
}

// Introspect handles GET /authz/introspect
// @Summary      Describe the current token
// @Tags         authz
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=IntrospectResponse}
// @Router       /authz/introspect [get]
func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	response.JSON(w, http.StatusOK, IntrospectResponse{UserID: userID, Email: middleware.GetEmail(r.Context())})
}

// IsMember handles GET /authz/groups/{id}/is-member
// @Summary      Is the caller a member of the group
// @Tags         authz
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=DecisionResponse}
// @Router       /authz/groups/{id}/is-member [get]
func (h *Handler) IsMember(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.checker.IsMember)
}

// IsOwner handles GET /authz/groups/{id}/is-owner
// @Summary      Is the caller the owner of the group
// @Tags         authz
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=DecisionResponse}
// @Router       /authz/groups/{id}/is-owner [get]
func (h *Handler) IsOwner(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.checker.IsOwner)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, check func(ctx context.Context, groupID, userID string) (bool, error)) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	groupID, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	allowed, err := check(r.Context(), groupID, userID)
	if err != nil {
		response.InternalError(w, "Failed to check access")
		return
	}
	response.JSON(w, http.StatusOK, DecisionResponse{Allowed: allowed})
}

// ExpenseInGroup handles GET /authz/expenses/{id}/in-group?group_id=
// @Summary      Does the expense belong to the group
// @Tags         authz
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID"
// @Param        group_id query string true "Group ID"
// @Success      200 {object} response.APIResponse{data=DecisionResponse}
// @Router       /authz/expenses/{id}/in-group [get]
func (h *Handler) ExpenseInGroup(w http.ResponseWriter, r *http.Request) {
	expenseID, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		response.BadRequest(w, "group_id is required")
		return
	}

	allowed, err := h.checker.ExpenseInGroup(r.Context(), expenseID, groupID)
	if err != nil {
		response.InternalError(w, "Failed to check expense")
		return
	}
	response.JSON(w, http.StatusOK, DecisionResponse{Allowed: allowed})
}
