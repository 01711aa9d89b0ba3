package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetUserByID(ctx context.Context, id models.UserID) (*models.User, error)
	ListUsers(ctx context.Context, actor *models.User) ([]models.User, error)
	SetAdmin(ctx context.Context, actor *models.User, id models.UserID, isAdmin bool) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, id models.UserID) error
	EnsureAdmin(ctx context.Context, reg models.Registration) (*models.User, error)
}

// LoginResult is what a successful login hands back to the client.
// access_token and token_type keep their OAuth2 names.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *models.User `json:"user"`
}

// UserService provides business logic for user management.
type UserService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	events EventServiceProvider
	now    func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, events EventServiceProvider) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, events: events, now: time.Now}
}

// Register creates a regular (non-admin) account.
func (s *UserService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	return s.create(ctx, reg, false)
}

func (s *UserService) create(ctx context.Context, reg models.Registration, isAdmin bool) (*models.User, error) {
	reg.Email = models.NormalizeEmail(reg.Email)
	reg.FullName = strings.TrimSpace(reg.FullName)
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           models.NewUserID(),
		Email:        reg.Email,
		FullName:     reg.FullName,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, models.Conflict("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend the same bcrypt work as a wrong password so timing does
			// not reveal which emails are registered.
			s.hasher.Verify(password, s.decoy())
			return nil, models.Unauthenticated("incorrect email or password")
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, models.Unauthenticated("incorrect email or password")
	}
	return user, nil
}

// decoy returns a hash at the configured cost that no submitted password matches.
func (s *UserService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			log.Error().Err(err).Msg("Failed to build decoy password hash")
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// Login authenticates and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.IssueFor(user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt, User: user}, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id models.UserID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// SetAdmin grants or revokes admin rights. Admin only; the change applies
// to the target's next request because the guard reads the live record.
func (s *UserService) SetAdmin(ctx context.Context, actor *models.User, id models.UserID, isAdmin bool) (*models.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == id && !isAdmin {
		return nil, models.Forbidden("admins cannot revoke their own admin rights")
	}
	if err := s.users.SetAdmin(ctx, id, isAdmin); err != nil {
		return nil, err
	}
	record(ctx, s.events, EventUserAdmin, "info",
		fmt.Sprintf("User %s admin=%t set by %s", id, isAdmin, actor.Email), nil)
	return s.users.GetByID(ctx, id)
}

// DeleteUser removes an account along with its ideas and votes. Admin only.
// Scores of other ideas the user voted on are not adjusted.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, id models.UserID) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return models.Forbidden("admins cannot delete their own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("user_id", id.String()).Str("admin", actor.Email).Msg("User deleted")
	record(ctx, s.events, EventUserDeleted, "warn",
		fmt.Sprintf("User %s deleted by %s", id, actor.Email), nil)
	return nil
}

// EnsureAdmin creates an admin account, or promotes the existing account
// with that email.
func (s *UserService) EnsureAdmin(ctx context.Context, reg models.Registration) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, models.NormalizeEmail(reg.Email))
	switch {
	case err == nil:
		if err := s.users.SetAdmin(ctx, existing.ID, true); err != nil {
			return nil, err
		}
		existing.IsAdmin = true
		return existing, nil
	case errors.Is(err, repository.ErrNotFound):
		return s.create(ctx, reg, true)
	default:
		return nil, err
	}
}
