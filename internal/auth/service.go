// Package auth registers accounts, checks passwords and issues the signed
// tokens every other request is authorized with.
package auth

import (
	"context"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/models"
	"crewfinder/backend/internal/session"
	"crewfinder/backend/internal/storage"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", config.MinPasswordLength)
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountGone        = errors.New("account no longer exists")
)

type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type Service struct {
	store  Store
	tokens *TokenManager
	cost   int
}

func NewService(store Store, tokens *TokenManager) *Service {
	return &Service{store: store, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Result is returned by Register and Login.
type Result struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// SetCost changes the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) SetCost(cost int) {
	s.cost = cost
}

func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Result, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < config.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         config.RoleUser,
		Platforms:    []string{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logging.Ctx(ctx).Info().Str(logging.FieldUserID, user.ID).Msg("account registered")
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Refresh re-issues a token from the current row, picking up role and
// name changes.
func (s *Service) Refresh(ctx context.Context, sess session.Session) (*Result, error) {
	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CurrentSession rebuilds sess from the stored user, so a token outlives
// neither its account nor a role change.
func (s *Service) CurrentSession(ctx context.Context, sess session.Session) (session.Session, error) {
	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, ErrAccountGone
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load account: %w", err)
	}
	return SessionFor(user), nil
}

// ParseToken verifies a token and returns its session.
func (s *Service) ParseToken(token string) (session.Session, error) {
	return s.tokens.Parse(token)
}

func (s *Service) issue(user *models.User) (*Result, error) {
	token, exp, err := s.tokens.Issue(SessionFor(user))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Result{Token: token, ExpiresAt: exp, User: user}, nil
}

// SessionFor builds the session of a stored user.
func SessionFor(user *models.User) session.Session {
	role := user.Role
	if role == "" {
		role = config.RoleUser
	}
	return session.Session{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        role,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
