package notification

import "time"

// Notification represents an in-app notification
type Notification struct {
	ID                string
	RecipientID       string
	Message           string
	IsRead            bool
	RelatedEntityType *EntityType
	RelatedEntityID   *string
	CreatedAt         time.Time
}

// EntityType names what a notification points at
type EntityType string

const (
	EntityGroup      EntityType = "GROUP"
	EntityExpense    EntityType = "EXPENSE"
	EntitySettlement EntityType = "SETTLEMENT"
)

// Notice is a message for one person. RecipientID is empty when the person
// has no account yet (an invite to a new email); Email is empty when only an
// in-app notification is wanted.
type Notice struct {
	RecipientID string
	Email       string
	Subject     string
	Message     string
	EntityType  EntityType
	EntityID    string
}
