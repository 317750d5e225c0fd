package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/auth"
	"github.com/redhope/backend/internal/infrastructure/observability"
	apperrors "github.com/redhope/backend/pkg/errors"
)

const bcryptCost = 12

// MinPasswordLength is enforced on every password change.
const MinPasswordLength = 8

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = apperrors.NewUnauthorizedError("invalid email or password")

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	UserID       string `json:"userId"`
	Role         string `json:"userRole"`
	IsAdmin      bool   `json:"isAdmin"`
}

// AuthService authenticates users and admins with JWTs
type AuthService struct {
	users  repositories.UserRepository
	admins repositories.AdminRepository
	tokens *auth.TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(users repositories.UserRepository, admins repositories.AdminRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, admins: admins, tokens: tokens}
}

// Login checks credentials against admins first, then users.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	pair, err := s.login(ctx, email, password)
	if err != nil {
		logFailedLogin(ctx, email, err)
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) login(ctx context.Context, email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if CheckPassword(password, admin.PasswordHash) != nil {
			return nil, ErrInvalidCredentials
		}
		return s.issue(admin.ID, admin.Email, entities.RoleAdmin)
	case !apperrors.IsNotFound(err):
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if CheckPassword(password, user.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user.ID, user.Email, entities.RoleUser)
}

// Refresh exchanges a refresh token for a new pair. The principal must still exist.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}

	switch claims.Role {
	case entities.RoleAdmin:
		admin, err := s.admins.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, s.principalGone(err)
		}
		return s.issue(admin.ID, admin.Email, entities.RoleAdmin)
	default:
		user, err := s.users.GetByID(ctx, claims.UserID)
		if err != nil {
			return nil, s.principalGone(err)
		}
		return s.issue(user.ID, user.Email, entities.RoleUser)
	}
}

// Authenticate validates an access token and returns the caller.
func (s *AuthService) Authenticate(accessToken string) (Actor, error) {
	claims, err := s.tokens.Validate(accessToken, auth.AccessToken)
	if err != nil {
		return Actor{}, apperrors.NewUnauthorizedError("invalid or expired token")
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *AuthService) principalGone(err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewUnauthorizedError("account no longer exists")
	}
	return err
}

func (s *AuthService) issue(id, email, role string) (*TokenPair, error) {
	access, err := s.tokens.Generate(id, email, role, auth.AccessToken)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sign token", err)
	}
	refresh, err := s.tokens.Generate(id, email, role, auth.RefreshToken)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sign token", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
		UserID:       id,
		Role:         role,
		IsAdmin:      role == entities.RoleAdmin,
	}, nil
}

func logFailedLogin(ctx context.Context, email string, err error) {
	if errors.Is(err, ErrInvalidCredentials) {
		observability.LoggerFromContext(ctx).Info().Str("email", email).Msg("failed login")
	}
}
