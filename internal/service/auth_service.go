package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
	"github.com/assessly/assessly-api/internal/session"
)

// AuthService handles credential verification and session lifecycle.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (models.User, session.Session, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID uint) (models.User, error)
	CreateUser(ctx context.Context, email, password, fullName string, role models.Role) (models.User, error)
	EnsureBootstrapAdmin(ctx context.Context, email, password, fullName string) error
}

type authService struct {
	users     repository.UserRepository
	sessions  session.Store
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, sessions session.Store, validator *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		sessions:  sessions,
		validator: validator,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

// Login verifies credentials and opens a session. Bad email and bad password
// collapse into the same generic failure.
func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (models.User, session.Session, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.User{}, session.Session{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, session.Session{}, apperr.Unauthenticated("invalid credentials")
		}
		return models.User{}, session.Session{}, apperr.Internal(fmt.Errorf("failed to look up user: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return models.User{}, session.Session{}, apperr.Unauthenticated("invalid credentials")
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return models.User{}, session.Session{}, apperr.Internal(fmt.Errorf("failed to create session: %w", err))
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")

	return user, sess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return apperr.Internal(fmt.Errorf("failed to delete session: %w", err))
	}
	return nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, apperr.Unauthenticated("authentication required")
		}
		return models.User{}, apperr.Internal(fmt.Errorf("failed to load profile: %w", err))
	}

	return user, nil
}

func (s *authService) CreateUser(ctx context.Context, email, password, fullName string, role models.Role) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" || strings.TrimSpace(fullName) == "" {
		return models.User{}, apperr.Validation("email, password and full name are required")
	}
	if !role.Valid() {
		return models.User{}, apperr.Validation("role must be student, instructor or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperr.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, apperr.Validation("email is already registered")
	}

	return user, nil
}

// EnsureBootstrapAdmin creates the configured admin account at startup when
// it does not exist yet. A blank email disables bootstrapping.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context, email, password, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check bootstrap admin: %w", err)
	}

	if fullName == "" {
		fullName = "Administrator"
	}

	if _, err := s.CreateUser(ctx, email, password, fullName, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("bootstrap admin created")

	return nil
}
