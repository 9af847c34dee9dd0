package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cms_admin/internal/events"
	"github.com/Skotchmaster/cms_admin/internal/hash"
	"github.com/Skotchmaster/cms_admin/internal/logging"
	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/repo"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
)

var (
	dummyOnce sync.Once
	dummy     string
)

// burnCompare keeps the unknown-user path as slow as a real comparison.
func burnCompare(password string) {
	dummyOnce.Do(func() {
		dummy, _ = hash.HashPassword("cms-admin-dummy")
	})
	hash.CheckPassword(dummy, password)
}

type UserStore interface {
	FindUserBy(ctx context.Context, where map[string]any) (*models.User, error)
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
}

type AuthService struct {
	Repo   UserStore
	Issuer *tokens.Issuer
	Events events.Publisher
}

type AuthPayload struct {
	Token string `json:"token"`
}

func (s *AuthService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicUserEvents, "error", err)
	}
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" {
		burnCompare(password)
		l.Warn("login_failed", "status", 401, "reason", "empty email")
		return nil, NewAuthenticationError(MsgInvalidLogin)
	}

	user, err := s.Repo.FindUserBy(ctx, map[string]any{"email": email})
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "user lookup failed", "error", err)
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		burnCompare(password)
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, NewAuthenticationError(MsgInvalidLogin)
	}

	if !hash.CheckPassword(user.Password, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, NewAuthenticationError(MsgInvalidLogin)
	}

	if !user.Active {
		l.Warn("login_failed", "status", 401, "reason", "account not activated")
		return nil, NewAuthenticationError(MsgNotActivated)
	}

	token, err := s.Issuer.Issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, user.ID.String(), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID.String(),
	})
	l.Info("login_successful")

	return &AuthPayload{Token: token}, nil
}

// Verify resolves a session token back to its user. The token must be
// correctly signed and unexpired, the user must still exist and be active,
// and the embedded fragment must match the user's current password hash.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, *tokens.UserData, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	claims, err := s.Issuer.Parse(token)
	if err != nil {
		l.Debug("verify_failed", "reason", "bad token", "error", err)
		return nil, nil, NewAuthenticationError(MsgInvalidToken)
	}
	data, err := tokens.DecodeData(claims.Data)
	if err != nil {
		l.Debug("verify_failed", "reason", "bad data claim", "error", err)
		return nil, nil, NewAuthenticationError(MsgInvalidToken)
	}
	id, err := uuid.Parse(data.ID)
	if err != nil {
		return nil, nil, NewAuthenticationError(MsgInvalidToken)
	}

	user, err := s.Repo.FindUserBy(ctx, map[string]any{"id": id})
	if err != nil {
		return nil, nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil, nil, NewAuthenticationError(MsgInvalidToken)
	}
	if subtle.ConstantTimeCompare([]byte(data.Token), []byte(s.Issuer.Fragment(user.Password))) != 1 {
		l.Debug("verify_failed", "reason", "stale fragment")
		return nil, nil, NewAuthenticationError(MsgInvalidToken)
	}
	if !user.Active {
		return nil, nil, NewAuthenticationError(MsgNotActivated)
	}

	return user, data, nil
}

// Register creates an inactive account with the default privilege.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, required(missing...)
	}
	if !strings.Contains(email, "@") {
		return nil, &ValidationError{Fields: []string{"email"}, Reason: "invalid email"}
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  pwHash,
		Privilege: models.PrivilegeUser,
		Active:    false,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			l.Warn("register_error", "status", 409, "reason", "user already exist")
			return nil, fmt.Errorf("user: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID.String(), map[string]any{
		"type":   "user_created",
		"userID": user.ID.String(),
	})
	return user, nil
}

// SetActive flips the activation flag of an account.
func (s *AuthService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.set_active")

	if err := s.Repo.SetUserActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		l.Error("set_active_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		l.Error("set_active_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	s.publish(ctx, id.String(), map[string]any{
		"type":   "user_activation_changed",
		"userID": id.String(),
		"active": active,
	})
	return user, nil
}
