package auth

import (
	"context"
	"errors"

	"github.com/watchthis/user-service/internal/entities"
)

// CredentialVerifier turns submitted credentials into a user.
// Implementations must return ErrInvalidCredentials for both an unknown
// username and a wrong password.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*entities.User, error)
}

// LocalPasswordStrategy verifies a username and password against the credential store.
type LocalPasswordStrategy struct {
	store *Service
	// dummyHash is compared when the user does not exist so both failure
	// paths spend the same bcrypt time.
	dummyHash string
}

// NewLocalPasswordStrategy creates the username/password verifier.
func NewLocalPasswordStrategy(store *Service) *LocalPasswordStrategy {
	dummy, _ := HashPassword("not-a-real-password", store.bcryptCost)
	return &LocalPasswordStrategy{store: store, dummyHash: dummy}
}

func (l *LocalPasswordStrategy) Verify(ctx context.Context, username, password string) (*entities.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := l.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		CheckPassword(password, l.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !l.store.VerifyPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
