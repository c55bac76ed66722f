package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/auth"
)

// UIController renders the session-facing pages outside the auth forms.
type UIController struct {
	sessions *auth.SessionAuthenticator
	store    *auth.Service
}

func NewUIController(sessions *auth.SessionAuthenticator, store *auth.Service) *UIController {
	return &UIController{
		sessions: sessions,
		store:    store,
	}
}

// Welcome renders the landing page, or sends a logged-in user to the dashboard.
func (ui *UIController) Welcome(c *gin.Context) {
	if ui.sessions.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, auth.DefaultLoginDestination)
		return
	}
	c.HTML(http.StatusOK, "welcome.html", gin.H{
		"Title": "Welcome",
	})
}

// Dashboard lists every user, newest first. Mount it behind EnsureAuthenticated.
func (ui *UIController) Dashboard(c *gin.Context) {
	user, err := ui.sessions.CurrentUser(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	users, err := ui.store.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		c.String(http.StatusInternalServerError, "Error loading users")
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":     "Dashboard",
		"User":      user,
		"Users":     users,
		"CSRFField": auth.CSRFTokenField(c),
	})
}
