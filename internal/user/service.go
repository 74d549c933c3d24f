package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fkhayef/splitbuddy/internal/mailer"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or unknown token")
	ErrTokenExpired       = errors.New("token expired")
)

const resetTokenTTL = time.Hour

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByVerificationToken(ctx context.Context, token string) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
	MarkVerified(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, id, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*User, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Generate(userID, email string) (string, error)
}

// Service handles accounts, sign-in and profiles
type Service struct {
	repo      Store
	tokens    TokenIssuer
	mail      mailer.Sender
	publicURL string
	logger    *slog.Logger

	hashCost int
	now      func() time.Time
}

// NewService creates a new user service. publicURL is the base of emailed links.
func NewService(repo Store, tokens TokenIssuer, mail mailer.Sender, publicURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		mail:      mail,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified account and emails the verification link
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*User, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	hash, err := hashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	u := &User{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      hash,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		VerificationToken: &token,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	link := s.link("/api/v1/auth/verify-email", token)
	s.send(ctx, mailer.Message{
		To:      u.Email,
		Subject: "Verify your SplitBuddy account",
		Body:    fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening:\n%s\n", u.FirstName, link),
	})
	return u, nil
}

// Signin checks credentials and issues an access token
func (s *Service) Signin(ctx context.Context, req *SigninRequest) (*TokenResponse, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil || !checkPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, ErrEmailNotVerified
	}

	signed, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: signed, TokenType: "bearer"}, nil
}

// VerifyEmail marks the account behind token as verified
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	u, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrInvalidToken
	}
	return s.repo.MarkVerified(ctx, u.ID)
}

// ForgotPassword stores a reset token valid for an hour and emails the link
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}

	token := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, u.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	link := s.link("/api/v1/auth/reset-password", token)
	s.send(ctx, mailer.Message{
		To:      u.Email,
		Subject: "Reset your SplitBuddy password",
		Body:    fmt.Sprintf("Use this link within the next hour to choose a new password:\n%s\n", link),
	})
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	u, err := s.repo.GetByResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrInvalidToken
	}
	if u.ResetTokenExpiry == nil || s.now().After(*u.ResetTokenExpiry) {
		return ErrTokenExpired
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := hashPassword(req.NewPassword, s.hashCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, u.ID, hash)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile changes the caller's names or email. Blank values are ignored.
func (s *Service) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) (*User, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := &UpdateProfileRequest{
		FirstName: blankToNil(req.FirstName),
		LastName:  blankToNil(req.LastName),
		Email:     blankToNil(req.Email),
	}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		upd.Email = &email
		if email == existing.Email {
			upd.Email = nil
		} else {
			other, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != id {
				return nil, ErrEmailAlreadyInUse
			}
		}
	}
	if upd.FirstName == nil && upd.LastName == nil && upd.Email == nil {
		return existing, nil
	}

	u, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func (s *Service) link(path, token string) string {
	return s.publicURL + path + "?token=" + url.QueryEscape(token)
}

// send delivers mail without failing the calling operation
func (s *Service) send(ctx context.Context, msg mailer.Message) {
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}
