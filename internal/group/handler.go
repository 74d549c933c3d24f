package group

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitbuddy/pkg/middleware"
	"github.com/fkhayef/splitbuddy/pkg/request"
	"github.com/fkhayef/splitbuddy/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Member management
	r.Get("/{id}/members", h.GetMembers)
	r.Post("/{id}/members", h.AddMember)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)
	r.Put("/{id}/members/{userId}/tag", h.SetRelationshipTag)
	r.Post("/{id}/notify", h.NotifyMember)

	// Invitations
	r.Post("/{id}/invites", h.Invite)
	r.Get("/{id}/invites", h.ListInvites)
	r.Post("/{id}/invites/respond", h.RespondToInvite)

	return r
}

// writeError maps service errors to HTTP responses
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInviteNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Not allowed to perform this action")
	case errors.Is(err, ErrMemberAlreadyExists), errors.Is(err, ErrInviteNotPending):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrCannotRemoveOwner), errors.Is(err, ErrMemberDetailsRequired),
		errors.Is(err, ErrInvalidInviteStatus):
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

// groupID parses the {id} path parameter, writing a 400 when it is malformed
func groupID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.ID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return "", false
	}
	return id, true
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group; the creator becomes its owner
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	g, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, g.ToResponse())
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with all its members
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	g, members, err := h.service.GetWithMembers(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to get group")
		return
	}

	resp := g.ToResponse()
	resp.Members = make([]*MemberResponse, len(members))
	for i, m := range members {
		resp.Members[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, resp)
}

// List handles GET /groups
// @Summary      List my groups
// @Description  Get a paginated list of groups for the current user
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	page, perPage := request.Pagination(r)
	groups, total, err := h.service.ListByUserID(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	out := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = g.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// Search handles GET /groups/search
// @Summary      Search my groups
// @Description  Filter the caller's groups by group name and member name
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        name query string false "Group name contains"
// @Param        member query string false "Member name contains"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, perPage := request.Pagination(r)
	results, total, err := h.service.Search(r.Context(), userID, q.Get("name"), q.Get("member"), page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to search groups")
		return
	}

	out := make([]*GroupResponse, len(results))
	for i, s := range results {
		out[i] = s.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// Update handles PATCH /groups/{id}
// @Summary      Update group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        request body UpdateGroupRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	g, err := h.service.Update(r.Context(), id, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to update group")
		return
	}

	response.JSON(w, http.StatusOK, g.ToResponse())
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err, "Failed to delete group")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

// GetMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Router       /groups/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	members, err := h.service.GetMembers(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to get members")
		return
	}

	out := make([]*MemberResponse, len(members))
	for i, m := range members {
		out[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}

// AddMember handles POST /groups/{id}/members
// @Summary      Add member to group
// @Description  Add a registered user to the group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        request body AddMemberRequest true "Member to add"
// @Success      201 {object} response.APIResponse{data=MemberResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	m, err := h.service.AddMember(r.Context(), id, userID, &req)
	if err != nil {
		writeError(w, err, "Failed to add member")
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
// @Summary      Remove member from group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        userId path string true "User ID"
// @Success      200 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	memberID, err := request.ID(r, "userId")
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), id, userID, memberID); err != nil {
		writeError(w, err, "Failed to remove member")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Member removed successfully"})
}

// SetRelationshipTag handles PUT /groups/{id}/members/{userId}/tag
// @Summary      Set a member's relationship tag
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        userId path string true "User ID"
// @Param        request body SetTagRequest true "New tag"
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Router       /groups/{id}/members/{userId}/tag [put]
func (h *Handler) SetRelationshipTag(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	memberID, err := request.ID(r, "userId")
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req SetTagRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	m, err := h.service.SetRelationshipTag(r.Context(), id, userID, memberID, req.RelationshipTag)
	if err != nil {
		writeError(w, err, "Failed to update member")
		return
	}

	response.JSON(w, http.StatusOK, m.ToResponse())
}

// NotifyMember handles POST /groups/{id}/notify
// @Summary      Send a message to a member
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        request body NotifyMemberRequest true "Recipient and message"
// @Success      200 {object} response.APIResponse
// @Router       /groups/{id}/notify [post]
func (h *Handler) NotifyMember(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req NotifyMemberRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.service.NotifyMember(r.Context(), id, userID, &req); err != nil {
		writeError(w, err, "Failed to notify member")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Notification sent"})
}

// Invite handles POST /groups/{id}/invites
// @Summary      Invite someone by email
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        request body InviteRequest true "Email to invite"
// @Success      201 {object} response.APIResponse{data=InviteResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/invites [post]
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req InviteRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	inv, err := h.service.Invite(r.Context(), id, userID, req.Email)
	if err != nil {
		writeError(w, err, "Failed to send invitation")
		return
	}

	response.JSON(w, http.StatusCreated, inv.ToResponse())
}

// ListInvites handles GET /groups/{id}/invites
// @Summary      List invitations
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        status query string false "pending, accepted or rejected"
// @Success      200 {object} response.APIResponse{data=[]InviteResponse}
// @Router       /groups/{id}/invites [get]
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	status := InviteStatus(r.URL.Query().Get("status"))
	invites, err := h.service.ListInvites(r.Context(), id, userID, status)
	if err != nil {
		writeError(w, err, "Failed to list invitations")
		return
	}

	out := make([]*InviteResponse, len(invites))
	for i, inv := range invites {
		out[i] = inv.ToResponse()
	}

	response.JSON(w, http.StatusOK, out)
}

// RespondToInvite handles POST /groups/{id}/invites/respond
// @Summary      Accept or reject an invitation
// @Description  Accepting requires phone_number and relationship_tag
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID"
// @Param        request body RespondInviteRequest true "Response"
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/invites/respond [post]
func (h *Handler) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req RespondInviteRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	m, err := h.service.RespondToInvite(r.Context(), id, userID, middleware.GetEmail(r.Context()), &req)
	if err != nil {
		writeError(w, err, "Failed to respond to invitation")
		return
	}

	if m == nil {
		response.JSON(w, http.StatusOK, map[string]string{"message": "Invitation rejected"})
		return
	}
	response.JSON(w, http.StatusOK, m.ToResponse())
}
