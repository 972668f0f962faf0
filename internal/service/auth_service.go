package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cortexdesk/cortexdesk/internal/auth"
	"github.com/cortexdesk/cortexdesk/internal/config"
	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/repository"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

// AuthService handles registration and login for all roles.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
}

// AuthResult is the login/registration response payload.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt int64
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates a customer account. Staff accounts are provisioned
// out of band, never through the public endpoint.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, util.NewValidationError("name and email are required", nil)
	}
	if !strings.Contains(email, "@") {
		return nil, util.NewValidationError("invalid email", map[string]any{"email": email})
	}
	if len(password) < 8 {
		return nil, util.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, util.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, util.MapError(err)
	}
	return s.issue(user)
}

// Login authenticates any account and issues a token carrying its role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, util.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, util.NewUnauthorized("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt.Unix()}, nil
}
