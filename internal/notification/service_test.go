package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/splitbuddy/internal/mailer"
)

type memStore struct {
	items   []*Notification
	failing bool
}

func (m *memStore) Create(_ context.Context, recipientID, message string, et *EntityType, eid *string) (*Notification, error) {
	if m.failing {
		return nil, errors.New("db down")
	}
	n := &Notification{
		ID:                recipientID + "-" + message,
		RecipientID:       recipientID,
		Message:           message,
		RelatedEntityType: et,
		RelatedEntityID:   eid,
		CreatedAt:         time.Now(),
	}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Notification, error) {
	for _, n := range m.items {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByRecipientID(_ context.Context, recipientID string, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	var out []*Notification
	for _, n := range m.items {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *memStore) MarkAsRead(_ context.Context, id string) error {
	n, _ := m.GetByID(context.Background(), id)
	n.IsRead = true
	return nil
}

func (m *memStore) MarkAllAsRead(_ context.Context, recipientID string) error {
	for _, n := range m.items {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *memStore) GetUnreadCount(_ context.Context, recipientID string) (int, error) {
	out, _, _ := m.ListByRecipientID(context.Background(), recipientID, 0, 0, true)
	return len(out), nil
}

type outbox struct {
	sent []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyStoresAndEmails(t *testing.T) {
	store := &memStore{}
	mail := &outbox{}
	svc := NewService(store, mail, quietLogger())

	svc.Notify(context.Background(), Notice{
		RecipientID: "u1",
		Email:       "u1@example.com",
		Subject:     "Hello",
		Message:     "You were invited",
		EntityType:  EntityGroup,
		EntityID:    "g1",
	})

	require.Len(t, store.items, 1)
	assert.Equal(t, EntityGroup, *store.items[0].RelatedEntityType)
	assert.Equal(t, "g1", *store.items[0].RelatedEntityID)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Hello", mail.sent[0].Subject)
}

func TestNotifyEmailOnlyAndFailuresAreSwallowed(t *testing.T) {
	store := &memStore{failing: true}
	mail := &outbox{}
	svc := NewService(store, mail, quietLogger())

	svc.Notify(context.Background(), Notice{Email: "new@example.com", Message: "Join us"})
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "SplitBuddy notification", mail.sent[0].Subject)

	mail.err = errors.New("smtp down")
	svc.Notify(context.Background(), Notice{RecipientID: "u1", Email: "u1@example.com", Message: "x"})
	assert.Empty(t, store.items)
}

func TestMarkAsRead(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, &outbox{}, quietLogger())
	ctx := context.Background()
	svc.Notify(ctx, Notice{RecipientID: "u1", Message: "a"})
	svc.Notify(ctx, Notice{RecipientID: "u1", Message: "b"})

	count, err := svc.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.ErrorIs(t, svc.MarkAsRead(ctx, "u1-a", "u2"), ErrNotRecipient)
	assert.ErrorIs(t, svc.MarkAsRead(ctx, "nope", "u1"), ErrNotificationNotFound)
	require.NoError(t, svc.MarkAsRead(ctx, "u1-a", "u1"))

	count, _ = svc.GetUnreadCount(ctx, "u1")
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkAllAsRead(ctx, "u1"))
	count, _ = svc.GetUnreadCount(ctx, "u1")
	assert.Equal(t, 0, count)
}
