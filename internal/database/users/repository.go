// Package users provides database operations for credential records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByUsername(ctx, "alice")
package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/watchthis/user-service/internal/entities"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user. A uniqueness violation on username is reported as
// ErrDuplicateUsername; the database constraint is authoritative, so concurrent
// signups for the same name cannot both succeed.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByUsername retrieves a user by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// List returns all users, newest first.
func (r *Repository) List(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

// UpdatePasswordHash replaces a user's stored hash and bumps updated_at.
func (r *Repository) UpdatePasswordHash(ctx context.Context, user *entities.User, hash string) error {
	result := r.db.WithContext(ctx).Model(user).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user permanently. Deleting an unknown id returns ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
