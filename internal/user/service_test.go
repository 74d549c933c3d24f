package user

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fkhayef/splitbuddy/internal/mailer"
	"github.com/fkhayef/splitbuddy/pkg/token"
)

type memStore struct {
	users map[string]*User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*User)}
}

func (m *memStore) find(match func(*User) bool) (*User, error) {
	for _, u := range m.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, u *User) error {
	if existing, _ := m.GetByEmail(context.Background(), u.Email); existing != nil {
		return ErrEmailAlreadyInUse
	}
	u.CreatedAt = time.Now()
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*User, error) {
	return m.find(func(u *User) bool { return u.ID == id })
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*User, error) {
	return m.find(func(u *User) bool { return u.Email == email })
}

func (m *memStore) GetByVerificationToken(_ context.Context, tok string) (*User, error) {
	return m.find(func(u *User) bool { return u.VerificationToken != nil && *u.VerificationToken == tok })
}

func (m *memStore) GetByResetToken(_ context.Context, tok string) (*User, error) {
	return m.find(func(u *User) bool { return u.ResetToken != nil && *u.ResetToken == tok })
}

func (m *memStore) MarkVerified(_ context.Context, id string) error {
	m.users[id].IsVerified = true
	m.users[id].VerificationToken = nil
	return nil
}

func (m *memStore) SetResetToken(_ context.Context, id, tok string, expiry time.Time) error {
	m.users[id].ResetToken = &tok
	m.users[id].ResetTokenExpiry = &expiry
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id, hash string) error {
	m.users[id].PasswordHash = hash
	m.users[id].ResetToken = nil
	m.users[id].ResetTokenExpiry = nil
	return nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, req *UpdateProfileRequest) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	c := *u
	return &c, nil
}

type outbox struct {
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *memStore, *outbox, *token.Manager) {
	t.Helper()
	store := newMemStore()
	mail := &outbox{}
	tokens := token.NewManager("test-secret", time.Hour)
	svc := NewService(store, tokens, mail, "http://localhost:8080/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.hashCost = bcrypt.MinCost
	return svc, store, mail, tokens
}

func signup(t *testing.T, svc *Service) *User {
	t.Helper()
	u, err := svc.Signup(context.Background(), &SignupRequest{
		Email:     "  Alice@Example.com ",
		Password:  "Secret#123",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	return u
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	_, after, found := strings.Cut(body, "?token=")
	require.True(t, found, body)
	return strings.TrimSpace(after)
}

func TestValidatePassword(t *testing.T) {
	tests := map[string]bool{
		"Secret#123": true,
		"Ab1!":       false,
		"secret#123": false,
		"SECRET#123": false,
		"Secret#abc": false,
		"Secret1234": false,
	}
	for pw, ok := range tests {
		t.Run(pw, func(t *testing.T) {
			err := ValidatePassword(pw)
			if ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}

func TestSignupVerifySignin(t *testing.T) {
	svc, _, mail, tokens := newTestService(t)
	ctx := context.Background()

	u := signup(t, svc)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.False(t, u.IsVerified)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "alice@example.com", mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Body, "http://localhost:8080/api/v1/auth/verify-email?token=")

	_, err := svc.Signin(ctx, &SigninRequest{Email: "alice@example.com", Password: "Secret#123"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, svc.VerifyEmail(ctx, tokenFromLink(t, mail.sent[0].Body)))
	assert.ErrorIs(t, svc.VerifyEmail(ctx, "unknown"), ErrInvalidToken)

	_, err = svc.Signin(ctx, &SigninRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Signin(ctx, &SigninRequest{Email: "bob@example.com", Password: "Secret#123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, err := svc.Signin(ctx, &SigninRequest{Email: "ALICE@example.com", Password: "Secret#123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	claims, err := tokens.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestSignupRejectsDuplicateAndWeakPassword(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	signup(t, svc)

	_, err := svc.Signup(context.Background(), &SignupRequest{Email: "alice@example.com", Password: "Secret#123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyInUse)

	_, err = svc.Signup(context.Background(), &SignupRequest{Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestPasswordReset(t *testing.T) {
	svc, store, mail, _ := newTestService(t)
	ctx := context.Background()
	u := signup(t, svc)
	require.NoError(t, store.MarkVerified(ctx, u.ID))

	assert.ErrorIs(t, svc.ForgotPassword(ctx, "nobody@example.com"), ErrUserNotFound)
	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))
	require.Len(t, mail.sent, 2)
	resetToken := tokenFromLink(t, mail.sent[1].Body)

	err := svc.ResetPassword(ctx, &ResetPasswordRequest{Token: resetToken, NewPassword: "weak"})
	assert.ErrorIs(t, err, ErrWeakPassword)
	err = svc.ResetPassword(ctx, &ResetPasswordRequest{Token: "bogus", NewPassword: "Newer#456"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.ResetPassword(ctx, &ResetPasswordRequest{Token: resetToken, NewPassword: "Newer#456"}))
	_, err = svc.Signin(ctx, &SigninRequest{Email: "alice@example.com", Password: "Newer#456"})
	assert.NoError(t, err)
}

func TestPasswordResetExpired(t *testing.T) {
	svc, _, mail, _ := newTestService(t)
	ctx := context.Background()
	signup(t, svc)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))
	svc.now = time.Now

	err := svc.ResetPassword(ctx, &ResetPasswordRequest{Token: tokenFromLink(t, mail.sent[1].Body), NewPassword: "Newer#456"})
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	alice := signup(t, svc)
	bob, err := svc.Signup(ctx, &SignupRequest{Email: "bob@example.com", Password: "Secret#123", FirstName: "Bob", LastName: "Jones"})
	require.NoError(t, err)

	blank := "  "
	name := "Alicia"
	u, err := svc.UpdateProfile(ctx, alice.ID, &UpdateProfileRequest{FirstName: &name, LastName: &blank})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.FirstName)
	assert.Equal(t, "Smith", u.LastName)

	taken := "BOB@example.com"
	_, err = svc.UpdateProfile(ctx, alice.ID, &UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailAlreadyInUse)

	own := "bob@example.com"
	u, err = svc.UpdateProfile(ctx, bob.ID, &UpdateProfileRequest{Email: &own})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)

	_, err = svc.UpdateProfile(ctx, "missing", &UpdateProfileRequest{FirstName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
