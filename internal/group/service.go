package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fkhayef/splitbuddy/internal/authz"
	"github.com/fkhayef/splitbuddy/internal/notification"
)

// Common errors
var (
	ErrGroupNotFound         = authz.ErrGroupNotFound
	ErrForbidden             = authz.ErrForbidden
	ErrMemberNotFound        = errors.New("member not found")
	ErrMemberAlreadyExists   = errors.New("user is already a member of this group")
	ErrUserNotFound          = errors.New("user not found")
	ErrCannotRemoveOwner     = errors.New("the group owner cannot be removed")
	ErrInviteNotFound        = errors.New("no invitation for this account")
	ErrInviteNotPending      = errors.New("invitation was already answered")
	ErrMemberDetailsRequired = errors.New("phone_number and relationship_tag are required to accept")
	ErrInvalidInviteStatus   = errors.New("status must be one of pending, accepted, rejected")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id string) (*Group, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Group, int, error)
	Search(ctx context.Context, userID, name, member string, limit, offset int) ([]*Summary, int, error)
	Update(ctx context.Context, id string, req *UpdateGroupRequest) (*Group, error)
	Delete(ctx context.Context, id string) (bool, error)

	AddMember(ctx context.Context, m *Member) error
	GetMembers(ctx context.Context, groupID string) ([]*Member, error)
	GetMember(ctx context.Context, groupID, userID string) (*Member, error)
	SetRelationshipTag(ctx context.Context, groupID, userID, tag string) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID string) (bool, error)

	UpsertInvite(ctx context.Context, groupID, email, invitedBy string) (*Invite, error)
	GetInvite(ctx context.Context, groupID, email string) (*Invite, error)
	ListInvites(ctx context.Context, groupID string, status InviteStatus) ([]*Invite, error)
	SetInviteStatus(ctx context.Context, id string, status InviteStatus) error

	UserByEmail(ctx context.Context, email string) (string, bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Access answers membership and ownership checks
type Access interface {
	EnsureMember(ctx context.Context, groupID, userID string) error
	EnsureOwner(ctx context.Context, groupID, userID string) error
}

// Notifier delivers in-app and email notifications
type Notifier interface {
	Notify(ctx context.Context, n notification.Notice)
}

// Service handles group business logic
type Service struct {
	repo      Store
	access    Access
	notifier  Notifier
	publicURL string
}

// NewService creates a new group service
func NewService(repo Store, access Access, notifier Notifier, publicURL string) *Service {
	return &Service{
		repo:      repo,
		access:    access,
		notifier:  notifier,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func pageOffset(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}

// Create creates a new group with the creator as its owner
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateGroupRequest) (*Group, error) {
	g := &Group{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   creatorID,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GetWithMembers retrieves a group and its members for one of its members
func (s *Service) GetWithMembers(ctx context.Context, id, userID string) (*Group, []*Member, error) {
	if err := s.access.EnsureMember(ctx, id, userID); err != nil {
		return nil, nil, err
	}

	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrGroupNotFound
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return g, members, nil
}

// ListByUserID retrieves a page of the user's groups
func (s *Service) ListByUserID(ctx context.Context, userID string, page, perPage int) ([]*Group, int, error) {
	limit, offset := pageOffset(page, perPage)
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// Search filters the user's groups by group name and member name
func (s *Service) Search(ctx context.Context, userID, name, member string, page, perPage int) ([]*Summary, int, error) {
	limit, offset := pageOffset(page, perPage)
	return s.repo.Search(ctx, userID, strings.TrimSpace(name), strings.TrimSpace(member), limit, offset)
}

// Update modifies a group. Only the owner may do this.
func (s *Service) Update(ctx context.Context, id, userID string, req *UpdateGroupRequest) (*Group, error) {
	if err := s.access.EnsureOwner(ctx, id, userID); err != nil {
		return nil, err
	}

	g, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// Delete removes a group. Only the owner may do this.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.access.EnsureOwner(ctx, id, userID); err != nil {
		return err
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGroupNotFound
	}
	return nil
}

// GetMembers lists a group's members for one of its members
func (s *Service) GetMembers(ctx context.Context, groupID, userID string) ([]*Member, error) {
	if err := s.access.EnsureMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, groupID)
}

// AddMember adds an existing user to the group and tells them about it
func (s *Service) AddMember(ctx context.Context, groupID, actorID string, req *AddMemberRequest) (*Member, error) {
	if err := s.access.EnsureOwner(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	m := &Member{
		GroupID:         groupID,
		UserID:          req.UserID,
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		RelationshipTag: strings.TrimSpace(req.RelationshipTag),
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}

	added, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if added == nil {
		return nil, ErrMemberNotFound
	}

	g, err := s.repo.GetByID(ctx, groupID)
	if err == nil && g != nil {
		s.notifier.Notify(ctx, notification.Notice{
			RecipientID: added.UserID,
			Email:       added.Email,
			Subject:     "Added to " + g.Name,
			Message:     fmt.Sprintf("You were added to the group %q.", g.Name),
			EntityType:  notification.EntityGroup,
			EntityID:    groupID,
		})
	}
	return added, nil
}

// RemoveMember removes a user from the group. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, userID string) error {
	if err := s.access.EnsureOwner(ctx, groupID, actorID); err != nil {
		return err
	}

	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}
	if g.CreatedBy == userID {
		return ErrCannotRemoveOwner
	}

	ok, err := s.repo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}
	return nil
}

// SetRelationshipTag relabels a member
func (s *Service) SetRelationshipTag(ctx context.Context, groupID, actorID, userID, tag string) (*Member, error) {
	if err := s.access.EnsureOwner(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	ok, err := s.repo.SetRelationshipTag(ctx, groupID, userID, strings.TrimSpace(tag))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMemberNotFound
	}

	m, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// Invite records a pending invitation for email and sends it. Registered
// users also get an in-app notification.
func (s *Service) Invite(ctx context.Context, groupID, actorID, email string) (*Invite, error) {
	if err := s.access.EnsureOwner(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}

	email = strings.ToLower(strings.TrimSpace(email))
	userID, registered, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if registered {
		m, err := s.repo.GetMember(ctx, groupID, userID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return nil, ErrMemberAlreadyExists
		}
	}

	inv, err := s.repo.UpsertInvite(ctx, groupID, email, actorID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notification.Notice{
		RecipientID: userID,
		Email:       email,
		Subject:     "You're invited to " + g.Name,
		Message: fmt.Sprintf("You have been invited to join the group %q on SplitBuddy.\n"+
			"Sign in and respond at %s/api/v1/groups/%s/invites/respond\n", g.Name, s.publicURL, groupID),
		EntityType: notification.EntityGroup,
		EntityID:   groupID,
	})
	return inv, nil
}

// ListInvites lists the group's invitations. An empty status lists all.
func (s *Service) ListInvites(ctx context.Context, groupID, actorID string, status InviteStatus) ([]*Invite, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidInviteStatus
	}
	if err := s.access.EnsureOwner(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListInvites(ctx, groupID, status)
}

// RespondToInvite accepts or rejects the invitation addressed to email.
// Accepting when already a member succeeds without changes. The returned
// member is nil for a rejection.
func (s *Service) RespondToInvite(ctx context.Context, groupID, userID, email string, req *RespondInviteRequest) (*Member, error) {
	inv, err := s.repo.GetInvite(ctx, groupID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInviteNotFound
	}

	existing, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	if !req.Accept {
		if inv.Status != InviteStatusPending {
			return nil, ErrInviteNotPending
		}
		return nil, s.repo.SetInviteStatus(ctx, inv.ID, InviteStatusRejected)
	}

	if existing != nil {
		if inv.Status == InviteStatusPending {
			if err := s.repo.SetInviteStatus(ctx, inv.ID, InviteStatusAccepted); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if inv.Status != InviteStatusPending {
		return nil, ErrInviteNotPending
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	tag := strings.TrimSpace(req.RelationshipTag)
	if phone == "" || tag == "" {
		return nil, ErrMemberDetailsRequired
	}

	m := &Member{GroupID: groupID, UserID: userID, PhoneNumber: phone, RelationshipTag: tag}
	if err := s.repo.AddMember(ctx, m); err != nil && !errors.Is(err, ErrMemberAlreadyExists) {
		return nil, err
	}
	if err := s.repo.SetInviteStatus(ctx, inv.ID, InviteStatusAccepted); err != nil {
		return nil, err
	}

	joined, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if joined == nil {
		return nil, ErrMemberNotFound
	}
	return joined, nil
}

// NotifyMember sends the owner's message to one member in-app and by email
func (s *Service) NotifyMember(ctx context.Context, groupID, actorID string, req *NotifyMemberRequest) error {
	if err := s.access.EnsureOwner(ctx, groupID, actorID); err != nil {
		return err
	}

	m, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMemberNotFound
	}

	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}

	s.notifier.Notify(ctx, notification.Notice{
		RecipientID: m.UserID,
		Email:       m.Email,
		Subject:     "Message from " + g.Name,
		Message:     strings.TrimSpace(req.Message),
		EntityType:  notification.EntityGroup,
		EntityID:    groupID,
	})
	return nil
}
