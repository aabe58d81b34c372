package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/model"
)

// UserService handles accounts: registration, login, role lookup and the
// self-service username and password changes.
//
// DEPENDENCIES:
//   - stores     Acquirer               → the shared store
//   - passwords  *auth.PasswordService  → bcrypt
//   - tokens     *auth.TokenService     → optional, nil disables tokens
//   - logger     *slog.Logger
type UserService struct {
	stores    Acquirer
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewUserService(stores Acquirer, passwords *auth.PasswordService, tokens *auth.TokenService, logger *slog.Logger) *UserService {
	return &UserService{
		stores:    stores,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// Register creates a user after validating the input and checking that
// the username is free.
//
// The uniqueness check is a query, not a constraint: two concurrent
// registrations of the same name can both pass it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword("password", in.Password); err != nil {
		return nil, err
	}
	role := model.Role(in.Role)
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be user or admin")
	}

	taken, err := store.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: checking username: %w", err)
	}
	if taken {
		return nil, apperror.Conflict("username", "username already exists")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}

	user := &model.User{Username: username, PasswordHash: hash, Role: role}
	if err := store.CreateUser(ctx, user); err != nil {
		if isNoRows(err) {
			return nil, apperror.Internal("registration failed, database write error", err)
		}
		return nil, fmt.Errorf("service/user: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

type LoginInput struct {
	Username string
	Password string
	Role     string
}

// LoginResult bundles the authenticated user and, when tokens are
// enabled, a signed session token.
type LoginResult struct {
	User  *model.User
	Token string
}

// Login checks the credentials in a fixed order: the username must exist,
// the stored role must equal the requested one, then the password must
// match. Unknown user and wrong password yield the same message.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Username) == "" || in.Password == "" || in.Role == "" {
		return nil, apperror.ValidationFailed("", "please fill in all login fields")
	}

	invalid := apperror.ValidationFailed("", "invalid username or password")

	user, err := store.GetUserByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/user: looking up user: %w", err)
	}

	if string(user.Role) != in.Role {
		return nil, apperror.ValidationFailed("role", "user role does not match")
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/user: %w", err)
	}

	result := &LoginResult{User: user}
	if s.tokens != nil {
		result.Token, err = s.tokens.Issue(user.ID, string(user.Role))
		if err != nil {
			return nil, fmt.Errorf("service/user: %w", err)
		}
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return result, nil
}

// Role returns the stored role of a user.
func (s *UserService) Role(ctx context.Context, userID int64) (model.Role, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return "", err
	}
	if userID <= 0 {
		return "", apperror.ValidationFailed("user_id", "user id is required")
	}

	user, err := store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.NotFoundMessage("user not found")
		}
		return "", fmt.Errorf("service/user: %w", err)
	}
	return user.Role, nil
}

// ChangeUsername renames a user. pathID comes from the URL and bodyID
// from the request body; they must agree. This is a consistency check
// on what the caller sent, not proof of identity.
func (s *UserService) ChangeUsername(ctx context.Context, pathID, bodyID int64, newUsername string) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	if pathID != bodyID {
		return apperror.Forbidden("no permission to modify this user")
	}

	username, err := validateUsername(newUsername)
	if err != nil {
		return err
	}

	taken, err := store.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("service/user: checking username: %w", err)
	}
	if taken {
		return apperror.Conflict("new_username", "username is already taken")
	}

	if err := store.UpdateUsername(ctx, pathID, username); err != nil {
		return fmt.Errorf("service/user: %w", err)
	}

	s.logger.Info("username changed", slog.Int64("userID", pathID), slog.String("username", username))
	return nil
}

// ChangePassword re-verifies the old password before storing a hash of
// the new one.
func (s *UserService) ChangePassword(ctx context.Context, pathID, bodyID int64, oldPassword, newPassword string) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	if pathID != bodyID {
		return apperror.Forbidden("no permission to modify this user")
	}
	if oldPassword == "" || newPassword == "" {
		return apperror.ValidationFailed("", "old and new password are required")
	}

	user, err := store.GetUserByID(ctx, pathID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundMessage("user not found")
		}
		return fmt.Errorf("service/user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.ValidationFailed("old_password", "old password is incorrect")
		}
		return fmt.Errorf("service/user: %w", err)
	}
	if err := validatePassword("new_password", newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/user: %w", err)
	}
	if err := store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("service/user: %w", err)
	}

	s.logger.Info("password changed", slog.Int64("userID", user.ID))
	return nil
}
