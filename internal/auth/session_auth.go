package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/entities"
)

// SessionAuthenticator runs the cookie flow for browser clients.
// A request is authenticated only while its session names a user that
// still exists in the credential store.
type SessionAuthenticator struct {
	sessions *SessionManager
	store    *Service
	verifier CredentialVerifier
}

// NewSessionAuthenticator creates the browser-facing authenticator.
func NewSessionAuthenticator(sessions *SessionManager, store *Service, verifier CredentialVerifier) *SessionAuthenticator {
	return &SessionAuthenticator{
		sessions: sessions,
		store:    store,
		verifier: verifier,
	}
}

// Sessions exposes the underlying session manager for flash messages.
func (a *SessionAuthenticator) Sessions() *SessionManager {
	return a.sessions
}

// Login verifies credentials, binds the user to the session and saves it
// before returning. Unknown user and wrong password both yield
// ErrInvalidCredentials.
func (a *SessionAuthenticator) Login(c *gin.Context, username, password string) (*entities.User, error) {
	user, err := a.verifier.Verify(c.Request.Context(), username, password)
	if err != nil {
		return nil, err
	}
	if err := a.Establish(c, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Establish logs user in on this session and persists it synchronously.
func (a *SessionAuthenticator) Establish(c *gin.Context, user *entities.User) error {
	if err := a.sessions.Establish(c.Request.Context(), user.ID); err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	if err := a.sessions.Save(c); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	c.Set(contextKeySessionUser, user)
	return nil
}

// Logout destroys the session.
func (a *SessionAuthenticator) Logout(c *gin.Context) error {
	if err := a.sessions.Destroy(c.Request.Context()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	c.Set(contextKeySessionUser, nil)
	return nil
}

// CurrentUser re-resolves the session subject. It returns ErrNoSession for
// an anonymous session and ErrUserNotFound when the user has been deleted.
func (a *SessionAuthenticator) CurrentUser(c *gin.Context) (*entities.User, error) {
	if user, ok := c.Get(contextKeySessionUser); ok {
		if u, ok := user.(*entities.User); ok {
			return u, nil
		}
	}

	userID := a.sessions.UserID(c.Request.Context())
	if userID == "" {
		return nil, ErrNoSession
	}

	user, err := a.store.FindByID(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	c.Set(contextKeySessionUser, user)
	return user, nil
}

// IsAuthenticated reports whether the session resolves to an existing user.
func (a *SessionAuthenticator) IsAuthenticated(c *gin.Context) bool {
	_, err := a.CurrentUser(c)
	return err == nil
}

// EnsureAuthenticated redirects anonymous browser requests to the login page.
func (a *SessionAuthenticator) EnsureAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := a.CurrentUser(c); err != nil {
			if !errors.Is(err, ErrNoSession) && !errors.Is(err, ErrUserNotFound) {
				c.Error(err)
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
