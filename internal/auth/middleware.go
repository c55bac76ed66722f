package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser        = "auth_user"   // subject resolved from a bearer token
	ContextKeyClaims      = "auth_claims" // verified token claims
	contextKeySessionUser = "auth_session_user"
)

// GateMode selects what AuthenticateJWT does with a request that carries no
// usable bearer token.
type GateMode int

const (
	// GateSoft lets the request through with no subject attached.
	GateSoft GateMode = iota
	// GateHard rejects the request with AUTHENTICATION_REQUIRED, whatever
	// the reason the token was refused.
	GateHard
)

// AuthenticateJWT verifies the bearer token, requires it to be an access
// token and re-resolves its subject. On success the user and claims are
// stored in the context.
func (a *JWTAuthenticator) AuthenticateJWT(mode GateMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := a.authenticateRequest(c)
		if err != nil {
			if mode == GateSoft {
				c.Next()
				return
			}
			logRejectedToken(c, err)
			WriteError(c, ErrAuthenticationRequired)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func (a *JWTAuthenticator) authenticateRequest(c *gin.Context) (*entities.User, *Claims, error) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil, nil, ErrAuthenticationRequired
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, nil, ErrAuthenticationRequired
	}

	user, err := a.store.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// logRejectedToken keeps the cause the client never sees. Store failures are
// errors; everything else is an ordinary bad credential.
func logRejectedToken(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAuthenticationRequired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrUserNotFound):
		slog.Debug("bearer token rejected", "path", c.Request.URL.Path, "reason", err)
	default:
		slog.Error("bearer token check failed", "path", c.Request.URL.Path, "error", err)
	}
}

// RequireJWT rejects requests that AuthenticateJWT did not attach a subject to.
func RequireJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == nil {
			WriteError(c, ErrAuthenticationRequired)
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUser retrieves the token subject from the context, or nil.
func GetUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetClaims retrieves the verified token claims from the context, or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}
