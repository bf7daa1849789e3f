// Package service contains the business logic layer.
//
// Handlers parse HTTP and write responses; services enforce the rules
// (validation, permissions, relationship consistency); repositories talk
// to the database. Services receive repository interfaces, never the
// concrete sqlite types, so they are testable with in-memory mocks.
//
// Every permission decision goes through the authz rule table — services
// build the authz.Resource and never write their own permission
// conditionals.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/auth"
	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/repository"
)

const maxUsernameLength = 150

// AuthService handles registration, login, token refresh, and password
// change.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	// now is injectable so age checks are deterministic in tests.
	now func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterInput carries the registration form. Password2 must repeat
// Password; the two consent flags default to false.
type RegisterInput struct {
	Username        string
	Password        string
	Password2       string
	DateOfBirth     time.Time
	CanBeContacted  bool
	CanDataBeShared bool
}

// Register validates the input and creates the account.
//
// Rules, in check order: username present and unique, passwords match,
// password satisfies the strength policy, and the derived age at the
// current date is at least 15. The plaintext password is hashed with
// bcrypt and never logged or echoed.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > maxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", maxUsernameLength))
	}

	if in.Password != in.Password2 {
		return nil, apperror.ValidationFailed("password", "passwords do not match")
	}
	if err := s.passwords.CheckStrength(in.Password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	if in.DateOfBirth.IsZero() {
		return nil, apperror.ValidationFailed("date_of_birth", "date of birth is required")
	}
	if model.AgeAt(in.DateOfBirth, s.now()) < model.MinimumAge {
		return nil, apperror.ValidationFailed("date_of_birth",
			fmt.Sprintf("you must be at least %d years old to register", model.MinimumAge))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password could not be processed")
	}

	user := &model.User{
		Username:        username,
		PasswordHash:    hash,
		DateOfBirth:     in.DateOfBirth,
		CanBeContacted:  in.CanBeContacted,
		CanDataBeShared: in.CanDataBeShared,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("username", "username is already taken")
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair.
//
// A wrong username and a wrong password both come back as the same
// unauthenticated error, so callers cannot probe which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, apperror.Unauthenticated("invalid username or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("invalid username or password")
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating tokens for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The user must
// still exist — a deleted account cannot refresh its way back in.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid or expired refresh token")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, apperror.Unauthenticated("account no longer exists")
	}

	pair, err := s.tokens.GeneratePair(userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: refreshing tokens for user %s: %w", userID, err)
	}

	return pair, nil
}

// ChangePassword rehashes and stores a new password for the actor's own
// account. The old password must verify against the stored hash, and the
// new one must pass the strength policy. Changing someone else's password
// is forbidden no matter what.
func (s *AuthService) ChangePassword(ctx context.Context, actorID, targetID, oldPassword, newPassword string) error {
	if actorID != targetID {
		return apperror.Forbidden("you may only change your own password")
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		return apperror.Forbidden("old password is incorrect")
	}

	if err := s.passwords.CheckStrength(newPassword); err != nil {
		return apperror.ValidationFailed("new_password", err.Error())
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("new_password", "password could not be processed")
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: storing new password for user %s: %w", user.ID, err)
	}

	s.logger.Info("password changed", slog.String("userID", user.ID))

	return nil
}
