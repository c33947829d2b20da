package board

import (
	"context"
	"strings"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/platinummonkey/jobboard/pkg/users"
)

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	Issue(userID int64, email string) (string, time.Time, error)
}

// RegisterInput is a new account
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginResult is a signed session token
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *users.User `json:"user"`
}

// AccountService registers users and signs them in
type AccountService struct {
	users  users.Repository
	tokens TokenIssuer
	deps   Deps
}

// NewAccountService creates an account service
func NewAccountService(repo users.Repository, tokens TokenIssuer, deps Deps) *AccountService {
	return &AccountService{users: repo, tokens: tokens, deps: deps.withDefaults()}
}

// Register creates an account. A taken email is a Conflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	email := users.NormalizeEmail(in.Email)
	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(in.FullName) == "" {
		fields["full_name"] = "required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid registration", fields)
	}

	hash, err := users.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &users.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.deps.Logger.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := apperr.New(apperr.KindUnauthenticated, "invalid email or password")

	user, err := s.users.GetByEmail(ctx, users.NormalizeEmail(email))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !users.CheckPassword(user.PasswordHash, password) {
		s.deps.Logger.WithField("user_id", user.ID).Debug("Login rejected: wrong password")
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to issue token", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me returns the caller's account
func (s *AccountService) Me(ctx context.Context, caller rbac.Caller) (*users.User, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, caller.UserID)
}
