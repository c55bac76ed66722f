package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/entities"
)

// JWTAuthenticator runs the bearer-token flow for API clients and bridges
// browser sessions into token pairs.
type JWTAuthenticator struct {
	tokens   *TokenService
	store    *Service
	verifier CredentialVerifier
	sessions *SessionAuthenticator
}

// NewJWTAuthenticator creates the API-facing authenticator.
func NewJWTAuthenticator(tokens *TokenService, store *Service, verifier CredentialVerifier, sessions *SessionAuthenticator) *JWTAuthenticator {
	return &JWTAuthenticator{
		tokens:   tokens,
		store:    store,
		verifier: verifier,
		sessions: sessions,
	}
}

// Login verifies credentials and issues a token pair.
func (a *JWTAuthenticator) Login(ctx context.Context, username, password string) (*entities.User, *TokenPair, error) {
	if username == "" || password == "" {
		return nil, nil, ErrMissingCredentials
	}

	user, err := a.verifier.Verify(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := a.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair for the same subject.
func (a *JWTAuthenticator) Refresh(ctx context.Context, refreshToken string) (*entities.User, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, ErrMissingRefreshToken
	}

	claims, err := a.tokens.Verify(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	if claims.Type != TokenTypeRefresh {
		return nil, nil, ErrInvalidTokenType
	}

	user, err := a.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}

	pair, err := a.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// SessionToJWT mints a fresh pair for the user behind the request's session.
// Every call signs new tokens.
func (a *JWTAuthenticator) SessionToJWT(c *gin.Context) (*entities.User, *TokenPair, error) {
	ctx := c.Request.Context()
	sm := a.sessions.Sessions()
	if !sm.Exists(ctx, SessionKeyUserID) {
		return nil, nil, ErrNoSession
	}
	if sm.UserID(ctx) == "" {
		return nil, nil, ErrUserIDMissing
	}

	user, err := a.sessions.CurrentUser(c)
	if err != nil {
		// A session naming a deleted user is no session at all.
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoSession) {
			return nil, nil, ErrNoSession
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	pair, err := a.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return user, pair, nil
}
