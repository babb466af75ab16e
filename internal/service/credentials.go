package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cleancity/waste-collection/internal/model"
	"github.com/cleancity/waste-collection/internal/repository"
	"github.com/cleancity/waste-collection/internal/utils"
)

// Validation errors surfaced by the credential flows.
var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidRole   = errors.New("invalid role")

	// ErrInvalidToken covers both unknown and expired reset tokens so the
	// redemption endpoint does not reveal which one it was.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// CredentialUserStore is the slice of the user repository the credential
// flows need.
type CredentialUserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	SetPassword(ctx context.Context, id string, hash string) error
}

// ResetTokenStore persists and redeems password recovery tokens.
type ResetTokenStore interface {
	Create(ctx context.Context, rt model.ResetToken) error
	GetByToken(ctx context.Context, token string) (model.ResetToken, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

const resetTokenTTL = time.Hour

// Credentials implements registration, admin user creation and the
// password reset flow. Email dispatch is mocked: the reset link is written
// to the server log.
type Credentials struct {
	users      CredentialUserStore
	resets     ResetTokenStore
	bcryptCost int
	baseURL    string
}

func NewCredentials(users CredentialUserStore, resets ResetTokenStore, bcryptCost int, baseURL string) *Credentials {
	if users == nil || resets == nil {
		panic("nil store passed to NewCredentials")
	}
	return &Credentials{users: users, resets: resets, bcryptCost: bcryptCost, baseURL: baseURL}
}

// Register creates a self-service account. The role is always citizen no
// matter what the client sent; only an admin can mint other roles.
func (s *Credentials) Register(ctx context.Context, email, name, password string) (model.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" || password == "" {
		return model.User{}, ErrMissingFields
	}
	return s.create(ctx, email, name, model.RoleCitizen, password)
}

// CreateUser is the admin-initiated variant: any of the three roles is
// accepted.
func (s *Credentials) CreateUser(ctx context.Context, email, name, role, password string) (model.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" || role == "" || password == "" {
		return model.User{}, ErrMissingFields
	}
	if !model.ValidRole(role) {
		return model.User{}, ErrInvalidRole
	}
	return s.create(ctx, email, name, role, password)
}

func (s *Credentials) create(ctx context.Context, email, name, role, password string) (model.User, error) {
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	return s.users.Create(ctx, model.User{
		Email:    email,
		Name:     name,
		Role:     role,
		Points:   0,
		Password: hash,
	})
}

// ForgotPassword issues a one-hour reset token and logs the reset link in
// place of a real email. It reports success even when the email is
// unknown, so the endpoint cannot be used to enumerate accounts.
func (s *Credentials) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrMissingFields
	}
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("forgot-password: no account for %s", email)
			return nil
		}
		return err
	}
	token, err := utils.RandomHex(32)
	if err != nil {
		return err
	}
	if err := s.resets.Create(ctx, model.ResetToken{
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Token:   token,
		Expires: time.Now().UTC().Add(resetTokenTTL),
	}); err != nil {
		return err
	}
	// mock email dispatch
	log.Printf("password reset link for %s: %s/reset-password?token=%s", email, s.baseURL, token)
	return nil
}

// ResetPassword redeems a token and replaces the user's credential. The
// token is deleted after a successful reset; an expired token is deleted
// by the store on detection. A valid token whose user has since vanished
// returns the user's ErrNotFound and leaves the token alone.
func (s *Credentials) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return ErrMissingFields
	}
	rt, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrTokenExpired) {
			return ErrInvalidToken
		}
		return err
	}
	user, err := s.users.GetByEmail(ctx, rt.Email)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, user.ID.Hex(), hash); err != nil {
		return err
	}
	return s.resets.Delete(ctx, rt.ID)
}
