package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/entities"
)

// Flash kinds shown on the login and signup pages.
const FlashError = "error"

// Default destinations when no callback URL is given.
const (
	DefaultLoginDestination  = "/dashboard"
	DefaultLogoutDestination = "/"
)

const (
	msgUsernameTaken  = "Username already exists. Please choose a different username."
	msgSignupFailed   = "An error occurred during signup. Please try again."
	msgLoginFailed    = "Invalid username or password."
	msgMissingLogin   = "Username and password are required."
	msgLogoutFailed   = "An error occurred while logging out"
	msgSessionFailure = "An error occurred while logging in"
)

// AuthController handles the browser-facing signup, login and logout forms.
type AuthController struct {
	sessions *SessionAuthenticator
	store    *Service
	guard    *RedirectGuard
	audit    *audit.Service
}

// NewAuthController creates a new authentication controller. auditor may be nil.
func NewAuthController(sessions *SessionAuthenticator, store *Service, guard *RedirectGuard, auditor *audit.Service) *AuthController {
	return &AuthController{
		sessions: sessions,
		store:    store,
		guard:    guard,
		audit:    auditor,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/signup", ac.SignupPage)
	router.POST("/signup", ac.Signup)
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET(RedirectHopPath, ac.guard.ServeHop)
}

// SignupPage renders the signup form.
func (ac *AuthController) SignupPage(c *gin.Context) {
	ac.renderForm(c, "signup.html", "Sign up")
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	ac.renderForm(c, "login.html", "Log in")
}

func (ac *AuthController) renderForm(c *gin.Context, name, title string) {
	c.HTML(http.StatusOK, name, gin.H{
		"Title":       title,
		"CallbackURL": c.Query("callbackUrl"),
		"Messages":    ac.sessions.Sessions().PopFlashes(c.Request.Context(), FlashError),
		"CSRFField":   CSRFTokenField(c),
	})
}

// Signup validates the form, creates the user and logs them in.
func (ac *AuthController) Signup(c *gin.Context) {
	ctx := c.Request.Context()
	sm := ac.sessions.Sessions()
	username := c.PostForm("username")
	password := c.PostForm("password")

	if problems := append(ValidateUsername(username), ValidatePassword(password)...); len(problems) > 0 {
		for _, problem := range problems {
			sm.AddFlash(ctx, FlashError, validationMessage(problem))
		}
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	user, err := ac.store.CreateUser(ctx, username, password)
	if err != nil {
		ac.record(c, entities.AuditActionSignup, nil, username, err)
		if errors.Is(err, ErrDuplicateUsername) {
			sm.AddFlash(ctx, FlashError, msgUsernameTaken)
		} else {
			slog.Error("signup failed", "username", username, "error", err)
			sm.AddFlash(ctx, FlashError, msgSignupFailed)
		}
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	if err := ac.sessions.Establish(c, user); err != nil {
		slog.Error("failed to log in new user", "user_id", user.ID, "error", err)
		c.String(http.StatusInternalServerError, msgSessionFailure)
		return
	}

	ac.record(c, entities.AuditActionSignup, user, username, nil)
	ac.guard.Dispatch(c, c.PostForm("callbackUrl"), DefaultLoginDestination)
}

// Login verifies the submitted credentials and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if username == "" || password == "" {
		ac.sessions.Sessions().AddFlash(c.Request.Context(), FlashError, msgMissingLogin)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	user, err := ac.sessions.Login(c, username, password)
	if err != nil {
		ac.record(c, entities.AuditActionSessionLogin, nil, username, err)
		if errors.Is(err, ErrInvalidCredentials) {
			ac.sessions.Sessions().AddFlash(c.Request.Context(), FlashError, msgLoginFailed)
			c.Redirect(http.StatusFound, "/login")
			return
		}
		slog.Error("session login failed", "username", username, "error", err)
		c.String(http.StatusInternalServerError, msgSessionFailure)
		return
	}

	ac.record(c, entities.AuditActionSessionLogin, user, username, nil)
	ac.guard.Dispatch(c, c.PostForm("callbackUrl"), DefaultLoginDestination)
}

// Logout destroys the session and sends the browser on.
func (ac *AuthController) Logout(c *gin.Context) {
	user, _ := ac.sessions.CurrentUser(c)

	if err := ac.sessions.Logout(c); err != nil {
		slog.Error("logout failed", "error", err)
		c.String(http.StatusInternalServerError, msgLogoutFailed)
		return
	}

	if user != nil {
		ac.record(c, entities.AuditActionSessionLogout, user, user.Username, nil)
	}
	ac.guard.Dispatch(c, c.PostForm("callbackUrl"), DefaultLogoutDestination)
}

func (ac *AuthController) record(c *gin.Context, action entities.AuditAction, user *entities.User, username string, err error) {
	recordAuthEvent(ac.audit, c, action, user, username, err)
}

func recordAuthEvent(auditor *audit.Service, c *gin.Context, action entities.AuditAction, user *entities.User, username string, err error) {
	if auditor == nil {
		return
	}
	event := audit.AuthEvent{
		Action:    action,
		Username:  username,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Err:       err,
	}
	if user != nil {
		event.UserID = user.ID
		event.Username = user.Username
	}
	auditor.LogAuth(event)
}

// validationMessage turns a validation error into a sentence for the form.
func validationMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
