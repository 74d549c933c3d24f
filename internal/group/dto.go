package group

import "time"

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// AddMemberRequest represents the request to add an existing user to a group
type AddMemberRequest struct {
	UserID          string `json:"user_id" validate:"required,uuid"`
	PhoneNumber     string `json:"phone_number" validate:"max=32"`
	RelationshipTag string `json:"relationship_tag" validate:"max=50"`
}

// SetTagRequest changes a member's relationship tag
type SetTagRequest struct {
	RelationshipTag string `json:"relationship_tag" validate:"required,max=50"`
}

// InviteRequest invites an email address to the group
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RespondInviteRequest accepts or rejects an invitation. Accepting requires
// the member details.
type RespondInviteRequest struct {
	Accept          bool   `json:"accept"`
	PhoneNumber     string `json:"phone_number" validate:"max=32"`
	RelationshipTag string `json:"relationship_tag" validate:"max=50"`
}

// NotifyMemberRequest sends a message to one member
type NotifyMemberRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Message string `json:"message" validate:"required,max=500"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	CreatedBy    string            `json:"created_by"`
	CreatedAt    string            `json:"created_at"`
	MemberCount  *int              `json:"member_count,omitempty"`
	ExpenseCount *int              `json:"expense_count,omitempty"`
	Members      []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	UserID          string `json:"user_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	RelationshipTag string `json:"relationship_tag"`
	JoinedAt        string `json:"joined_at"`
}

// InviteResponse represents an invitation
type InviteResponse struct {
	ID           string       `json:"id"`
	GroupID      string       `json:"group_id"`
	InvitedEmail string       `json:"invited_email"`
	InvitedBy    string       `json:"invited_by"`
	Status       InviteStatus `json:"status"`
	CreatedAt    string       `json:"created_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a search Summary to a GroupResponse with counts
func (s *Summary) ToResponse() *GroupResponse {
	resp := s.Group.ToResponse()
	members, expenses := s.MemberCount, s.ExpenseCount
	resp.MemberCount = &members
	resp.ExpenseCount = &expenses
	return resp
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		UserID:          m.UserID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Email:           m.Email,
		PhoneNumber:     m.PhoneNumber,
		RelationshipTag: m.RelationshipTag,
		JoinedAt:        m.JoinedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts an Invite model to an InviteResponse DTO
func (i *Invite) ToResponse() *InviteResponse {
	return &InviteResponse{
		ID:           i.ID,
		GroupID:      i.GroupID,
		InvitedEmail: i.InvitedEmail,
		InvitedBy:    i.InvitedBy,
		Status:       i.Status,
		CreatedAt:    i.CreatedAt.UTC().Format(time.RFC3339),
	}
}
