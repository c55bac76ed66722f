package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/entities"
)

type profileResponse struct {
	User entities.PublicUser `json:"user"`
}

// Profile returns the subject of the access token. Mount it behind a JWT gate
// followed by RequireJWT.
func Profile(c *gin.Context) {
	user := auth.GetUser(c)
	if user == nil {
		auth.WriteError(c, auth.ErrAuthenticationRequired)
		return
	}
	auth.WriteSuccess(c, http.StatusOK, profileResponse{User: user.Public()})
}
