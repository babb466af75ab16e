package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/cleancity/waste-collection/internal/model"
	"github.com/cleancity/waste-collection/internal/repository"
)

// credUserFake implements CredentialUserStore with the repository's email
// semantics: lowercased unique emails, ErrEmailExists on a duplicate.
type credUserFake struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by lowercased email
}

func newCredUserFake() *credUserFake {
	return &credUserFake{users: map[string]model.User{}}
}

func (f *credUserFake) Create(_ context.Context, u model.User) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := f.users[key]; exists {
		return model.User{}, repository.ErrEmailExists
	}
	u.ID = primitive.NewObjectID()
	u.Email = key
	f.users[key] = u
	return u, nil
}

func (f *credUserFake) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[strings.ToLower(strings.TrimSpace(email))]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *credUserFake) SetPassword(_ context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, u := range f.users {
		if u.ID.Hex() == id {
			u.Password = hash
			f.users[key] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *credUserFake) remove(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, strings.ToLower(email))
}

// resetTokenFake mirrors the store's redemption contract: unknown tokens
// return ErrNotFound, expired ones are deleted and return ErrTokenExpired.
type resetTokenFake struct {
	mu     sync.Mutex
	tokens map[string]model.ResetToken
}

func newResetTokenFake() *resetTokenFake {
	return &resetTokenFake{tokens: map[string]model.ResetToken{}}
}

func (f *resetTokenFake) Create(_ context.Context, rt model.ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt.ID = primitive.NewObjectID()
	f.tokens[rt.Token] = rt
	return nil
}

func (f *resetTokenFake) GetByToken(_ context.Context, token string) (model.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok {
		return model.ResetToken{}, repository.ErrNotFound
	}
	if time.Now().UTC().After(rt.Expires) {
		delete(f.tokens, token)
		return model.ResetToken{}, repository.ErrTokenExpired
	}
	return rt, nil
}

func (f *resetTokenFake) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, rt := range f.tokens {
		if rt.ID == id {
			delete(f.tokens, token)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *resetTokenFake) only(t *testing.T) model.ResetToken {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) != 1 {
		t.Fatalf("store holds %d tokens, want 1", len(f.tokens))
	}
	for _, rt := range f.tokens {
		return rt
	}
	return model.ResetToken{}
}

func (f *resetTokenFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// bcrypt.MinCost keeps the hashing fast under test.
func newTestCredentials(users *credUserFake, resets *resetTokenFake) *Credentials {
	return NewCredentials(users, resets, bcrypt.MinCost, "http://localhost:3000")
}

func TestCredentials_RegisterForcesCitizenRole(t *testing.T) {
	users := newCredUserFake()
	svc := newTestCredentials(users, newResetTokenFake())

	u, err := svc.Register(context.Background(), "Ada@Example.com", "Ada", "hunter22")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Role != model.RoleCitizen {
		t.Errorf("role = %q, want citizen", u.Role)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.Password == "hunter22" || u.Password == "" {
		t.Error("password stored unhashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestCredentials_RegisterValidation(t *testing.T) {
	svc := newTestCredentials(newCredUserFake(), newResetTokenFake())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "Ada", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing email err = %v, want ErrMissingFields", err)
	}
	if _, err := svc.Register(ctx, "a@b.co", "  ", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("blank name err = %v, want ErrMissingFields", err)
	}
	if _, err := svc.Register(ctx, "a@b.co", "Ada", ""); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing password err = %v, want ErrMissingFields", err)
	}
}

func TestCredentials_RegisterDuplicateEmail(t *testing.T) {
	svc := newTestCredentials(newCredUserFake(), newResetTokenFake())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "pw"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "ADA@example.com", "Imposter", "pw"); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("duplicate err = %v, want ErrEmailExists", err)
	}
}

func TestCredentials_CreateUserRoles(t *testing.T) {
	svc := newTestCredentials(newCredUserFake(), newResetTokenFake())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "cole@example.com", "Cole", model.RoleCollector, "pw")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.Role != model.RoleCollector {
		t.Errorf("role = %q, want collector", u.Role)
	}

	if _, err := svc.CreateUser(ctx, "x@example.com", "X", "janitor", "pw"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role err = %v, want ErrInvalidRole", err)
	}
}

func TestCredentials_PasswordResetFlow(t *testing.T) {
	users := newCredUserFake()
	resets := newResetTokenFake()
	svc := newTestCredentials(users, resets)
	ctx := context.Background()

	u, err := svc.Register(ctx, "ada@example.com", "Ada", "old-password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	rt := resets.only(t)
	if rt.Email != "ada@example.com" {
		t.Errorf("token email = %q", rt.Email)
	}
	if until := time.Until(rt.Expires); until <= 0 || until > time.Hour {
		t.Errorf("token ttl out of range: %s", until)
	}

	if err := svc.ResetPassword(ctx, rt.Token, "new-password"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	// token consumed, credential replaced
	if resets.count() != 0 {
		t.Error("token not deleted after redemption")
	}
	stored, _ := users.GetByEmail(ctx, u.Email)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-password")); err != nil {
		t.Errorf("new password does not verify: %v", err)
	}

	// second redemption must fail
	if err := svc.ResetPassword(ctx, rt.Token, "again"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token err = %v, want ErrInvalidToken", err)
	}
}

func TestCredentials_ForgotPasswordUnknownEmail(t *testing.T) {
	resets := newResetTokenFake()
	svc := newTestCredentials(newCredUserFake(), resets)

	// success is reported either way so accounts cannot be enumerated
	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("ForgotPassword should swallow unknown emails, got %v", err)
	}
	if resets.count() != 0 {
		t.Error("no token should be issued for an unknown email")
	}
}

func TestCredentials_ResetPasswordExpiredToken(t *testing.T) {
	users := newCredUserFake()
	resets := newResetTokenFake()
	svc := newTestCredentials(users, resets)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := resets.Create(ctx, model.ResetToken{
		Email:   "ada@example.com",
		Token:   "stale-token",
		Expires: time.Now().UTC().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if err := svc.ResetPassword(ctx, "stale-token", "new"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}
	if resets.count() != 0 {
		t.Error("expired token should be purged on detection")
	}
}

func TestCredentials_ResetPasswordMissingUser(t *testing.T) {
	users := newCredUserFake()
	resets := newResetTokenFake()
	svc := newTestCredentials(users, resets)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	rt := resets.only(t)

	// the account vanishes between issue and redemption
	users.remove("ada@example.com")
	if err := svc.ResetPassword(ctx, rt.Token, "new"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
	// the token survives a failed redemption
	if resets.count() != 1 {
		t.Error("token must not be consumed when the user lookup fails")
	}
}
