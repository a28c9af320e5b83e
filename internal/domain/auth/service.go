package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type UserStore interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserContext `json:"user"`
}

type Service struct {
	store  UserStore
	secret string
	ttl    time.Duration
	log    *zap.Logger
}

func NewService(store UserStore, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, secret: secret, ttl: ttl, log: logger}
}

// Login checks credentials and issues an access token. Unknown users and
// wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.Password, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	claims := Claims{UserID: user.ID, TenantID: user.TenantID, RoleID: user.RoleID, RoleName: user.RoleName}
	token, err := GenerateToken(s.secret, claims, s.ttl)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("last login update failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
		User:      UserContext{UserID: user.ID, TenantID: user.TenantID, RoleID: user.RoleID, RoleName: user.RoleName},
	}, nil
}

// Permissions lists what role may do, in the order of DefaultPermissions.
func Permissions(role string) []string {
	granted := map[string]bool{}
	for r, perms := range RolePermissions {
		if !strings.EqualFold(r, role) {
			continue
		}
		for _, p := range perms {
			granted[p] = true
		}
	}
	out := []string{}
	for _, p := range DefaultPermissions {
		if granted[p] {
			out = append(out, p)
		}
	}
	return out
}
