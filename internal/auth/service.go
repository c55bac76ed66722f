package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/database/users"
	"github.com/watchthis/user-service/internal/entities"
)

// Service is the credential store: user records plus password hashing.
type Service struct {
	users      *users.Repository
	bcryptCost int
}

// NewService creates a new credential store.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:      repo,
		bcryptCost: cfg.BcryptCost,
	}
}

// CreateUser hashes the password and stores a new user.
// Returns ErrDuplicateUsername when the name is taken.
func (s *Service) CreateUser(ctx context.Context, username, password string) (*entities.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	passwordHash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	return user, nil
}

// FindByUsername retrieves a user by username.
func (s *Service) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// FindByID retrieves a user by id.
func (s *Service) FindByID(ctx context.Context, id string) (*entities.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns every user, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]entities.User, error) {
	return s.users.List(ctx)
}

// DeleteUser removes a user. Sessions and tokens naming the user stop
// resolving on their next use. Unknown ids return ErrUserNotFound.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// VerifyPassword reports whether candidate matches the user's stored hash.
func (s *Service) VerifyPassword(user *entities.User, candidate string) bool {
	if user == nil {
		return false
	}
	return CheckPassword(candidate, user.PasswordHash)
}

// UpdatePassword replaces the user's password with a hash of newPassword.
func (s *Service) UpdatePassword(ctx context.Context, user *entities.User, newPassword string) error {
	newHash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user, newHash); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	user.PasswordHash = newHash
	return nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, user *entities.User, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrMissingCredentials
	}
	if !s.VerifyPassword(user, currentPassword) {
		return ErrInvalidCredentials
	}
	if errs := ValidatePassword(newPassword); len(errs) > 0 {
		return errs[0]
	}
	return s.UpdatePassword(ctx, user, newPassword)
}
