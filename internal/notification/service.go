package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fkhayef/splitbuddy/internal/mailer"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, recipientID, message string, entityType *EntityType, entityID *string) (*Notification, error)
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListByRecipientID(ctx context.Context, recipientID string, limit, offset int, unreadOnly bool) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, recipientID string) error
	GetUnreadCount(ctx context.Context, recipientID string) (int, error)
}

// Service stores in-app notifications and mirrors them by email
type Service struct {
	repo   Store
	mail   mailer.Sender
	logger *slog.Logger
}

// NewService creates a new notification service
func NewService(repo Store, mail mailer.Sender, logger *slog.Logger) *Service {
	return &Service{repo: repo, mail: mail, logger: logger}
}

// Notify records the notice in-app and emails it. Delivery is best effort:
// failures are logged and never returned.
func (s *Service) Notify(ctx context.Context, n Notice) {
	if n.RecipientID != "" {
		var entityType *EntityType
		var entityID *string
		if n.EntityType != "" {
			entityType = &n.EntityType
		}
		if n.EntityID != "" {
			entityID = &n.EntityID
		}
		if _, err := s.repo.Create(ctx, n.RecipientID, n.Message, entityType, entityID); err != nil {
			s.logger.WarnContext(ctx, "failed to store notification", "recipient_id", n.RecipientID, "error", err)
		}
	}

	if n.Email != "" {
		subject := n.Subject
		if subject == "" {
			subject = "SplitBuddy notification"
		}
		if err := s.mail.Send(ctx, mailer.Message{To: n.Email, Subject: subject, Body: n.Message}); err != nil {
			s.logger.WarnContext(ctx, "failed to email notification", "to", n.Email, "error", err)
		}
	}
}

// ListByRecipientID retrieves a page of notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID string, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks one of the user's notifications as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}
