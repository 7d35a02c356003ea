package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/citypulse/internal/models"
	pkgauth "github.com/BradenHooton/citypulse/pkg/auth"
	pkglogger "github.com/BradenHooton/citypulse/pkg/logger"
)

// UserRepository defines the credential store operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

// AuthService handles signup and login
type AuthService struct {
	repo        UserRepository
	tokens      TokenIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tokens TokenIssuer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Register creates a user. An empty role defaults to citizen.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if role == "" {
		role = models.RoleCitizen
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     pkglogger.EventSignup,
				Username:      username,
				FailureReason: "duplicate_username",
			})
			return nil, models.ErrDuplicateUsername
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("role", user.Role))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventSignup,
		UserID:    user.ID,
		Username:  user.Username,
		Success:   true,
	})
	return user, nil
}

// Login checks credentials and issues a bearer token. Unknown usernames fail
// with ErrNotFound and wrong passwords with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     pkglogger.EventLogin,
				Username:      username,
				FailureReason: "user_not_found",
			})
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLogin,
			UserID:        user.ID,
			Username:      username,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		UserID:    user.ID,
		Username:  user.Username,
		Success:   true,
	})
	return &LoginResult{Token: token, Role: user.Role}, nil
}

// EnsureOfficer creates an officer account unless the username already exists
func (s *AuthService) EnsureOfficer(ctx context.Context, username, password string) error {
	existing, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case err == nil:
		if existing.Role != models.RoleOfficer {
			s.logger.Warn("bootstrap officer username belongs to a non-officer account",
				slog.String("user_id", existing.ID))
		}
		return nil
	case !errors.Is(err, models.ErrNotFound):
		return fmt.Errorf("failed to look up bootstrap officer: %w", err)
	}

	user, err := s.Register(ctx, username, password, models.RoleOfficer)
	if errors.Is(err, models.ErrDuplicateUsername) {
		// created concurrently by another instance
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create bootstrap officer: %w", err)
	}

	s.logger.Info("bootstrap officer created", slog.String("user_id", user.ID))
	return nil
}
