package group

import "time"

// OwnerTag is the relationship tag given to a group's creator
const OwnerTag = "owner"

// InviteStatus represents the lifecycle of an email invitation
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRejected InviteStatus = "rejected"
)

// Valid reports whether s is a known invite status
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusRejected:
		return true
	}
	return false
}

// Group represents a group in the system
type Group struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary is a group with the counts shown in search results
type Summary struct {
	Group
	MemberCount  int
	ExpenseCount int
}

// Member represents a user's membership in a group
type Member struct {
	GroupID         string
	UserID          string
	PhoneNumber     string
	RelationshipTag string
	JoinedAt        time.Time

	// Populated from JOIN
	FirstName string
	LastName  string
	Email     string
}

// Invite is an invitation sent to an email address
type Invite struct {
	ID           string
	GroupID      string
	InvitedEmail string
	InvitedBy    string
	Status       InviteStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
