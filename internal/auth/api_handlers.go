package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/entities"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
}

type tokenResponse struct {
	*TokenPair
	User *entities.PublicUser `json:"user,omitempty"`
}

type userResponse struct {
	User entities.PublicUser `json:"user"`
}

// APIController serves the JSON endpoints used by other services.
type APIController struct {
	jwt      *JWTAuthenticator
	sessions *SessionAuthenticator
	store    *Service
	audit    *audit.Service
}

// NewAPIController creates the JSON API controller. auditor may be nil.
func NewAPIController(jwt *JWTAuthenticator, sessions *SessionAuthenticator, store *Service, auditor *audit.Service) *APIController {
	return &APIController{
		jwt:      jwt,
		sessions: sessions,
		store:    store,
		audit:    auditor,
	}
}

// RegisterRoutes registers the API routes under api, typically /api/v1.
func (ac *APIController) RegisterRoutes(api gin.IRoutes) {
	requireAccess := ac.jwt.AuthenticateJWT(GateHard)

	api.GET("/session", ac.Session)
	api.POST("/auth/login", ac.Login)
	api.POST("/auth/refresh", ac.Refresh)
	api.GET("/auth/me", requireAccess, ac.Me)
	api.GET("/auth/session-to-jwt", ac.SessionToJWT)
	api.POST("/auth/password", requireAccess, ac.ChangePassword)
	api.DELETE("/auth/me", requireAccess, ac.DeleteAccount)
}

// Session reports the user behind the request's session cookie.
func (ac *APIController) Session(c *gin.Context) {
	user, err := ac.sessions.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user.Public()})
}

// Login exchanges a username and password for a token pair.
func (ac *APIController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		WriteError(c, ErrMissingCredentials)
		return
	}

	user, pair, err := ac.jwt.Login(c.Request.Context(), req.Username, req.Password)
	ac.record(c, entities.AuditActionTokenLogin, user, req.Username, err)
	if err != nil {
		WriteError(c, err)
		return
	}

	public := user.Public()
	WriteSuccess(c, http.StatusOK, tokenResponse{TokenPair: pair, User: &public})
}

// Refresh exchanges a refresh token for a new pair.
func (ac *APIController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		WriteError(c, ErrMissingRefreshToken)
		return
	}

	user, pair, err := ac.jwt.Refresh(c.Request.Context(), req.RefreshToken)
	ac.record(c, entities.AuditActionTokenRefresh, user, "", err)
	if err != nil {
		WriteError(c, err)
		return
	}

	WriteSuccess(c, http.StatusOK, tokenResponse{TokenPair: pair})
}

// Me returns the subject of the access token.
func (ac *APIController) Me(c *gin.Context) {
	user := GetUser(c)
	if user == nil {
		WriteError(c, ErrAuthenticationRequired)
		return
	}
	WriteSuccess(c, http.StatusOK, userResponse{User: user.Public()})
}

// SessionToJWT upgrades the browser session into a fresh token pair.
func (ac *APIController) SessionToJWT(c *gin.Context) {
	user, pair, err := ac.jwt.SessionToJWT(c)
	ac.record(c, entities.AuditActionSessionToToken, user, "", err)
	if err != nil {
		WriteError(c, err)
		return
	}

	public := user.Public()
	WriteSuccess(c, http.StatusOK, tokenResponse{TokenPair: pair, User: &public})
}

// ChangePassword replaces the caller's password after checking the current one.
func (ac *APIController) ChangePassword(c *gin.Context) {
	user := GetUser(c)
	if user == nil {
		WriteError(c, ErrAuthenticationRequired)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		WriteError(c, ErrMissingCredentials)
		return
	}

	err := ac.store.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword)
	ac.record(c, entities.AuditActionPasswordChange, user, "", err)
	if err != nil {
		WriteError(c, err)
		return
	}

	WriteSuccess(c, http.StatusOK, gin.H{"message": "Password updated"})
}

// DeleteAccount removes the caller. Outstanding tokens and sessions stop
// resolving immediately.
func (ac *APIController) DeleteAccount(c *gin.Context) {
	user := GetUser(c)
	if user == nil {
		WriteError(c, ErrAuthenticationRequired)
		return
	}

	err := ac.store.DeleteUser(c.Request.Context(), user.ID)
	ac.record(c, entities.AuditActionAccountDelete, user, "", err)
	if err != nil {
		WriteError(c, err)
		return
	}

	WriteSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

func (ac *APIController) record(c *gin.Context, action entities.AuditAction, user *entities.User, username string, err error) {
	recordAuthEvent(ac.audit, c, action, user, username, err)
}
