package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

var errInvalidCredentials = apperrors.NewUnauthorized("invalid email or password")

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	clock      func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Logger       *zap.Logger
	Clock        func() time.Time
}

// RegisterInput describes a self-service signup.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is the result of a successful login or registration.
type Session struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes, cfg.RefreshTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		clock:      clock,
	}
}

// Register creates a VIEWER account and signs the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid email"
	}
	if len(input.Password) < auth.MinPasswordLength {
		details["password"] = "too short"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	user, err := s.createUser(ctx, strings.TrimSpace(input.Name), email, input.Password, domain.RoleViewer)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and stamps the last login time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.NewForbidden("account is disabled")
	}

	now := s.clock()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("stamp last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return s.session(user)
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokenMgr.ParseToken(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.NewForbidden("account is disabled")
	}
	return s.session(user)
}

// Profile returns the user by id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewValidationError("invalid password", map[string]any{"new_password": "too short"})
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// EnsureAdmin creates an ADMIN account for email unless one already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !repository.IsNotFound(err) {
		return err
	}
	user, err := s.createUser(ctx, "Administrator", email, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID), zap.String("email", email))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	pair, err := s.tokenMgr.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: pair}, nil
}
