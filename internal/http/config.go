package http

import (
	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Store    *auth.Service
	Auditor  *audit.Service // optional

	// Authentication
	Sessions *auth.SessionAuthenticator
	JWT      *auth.JWTAuthenticator
	Guard    *auth.RedirectGuard

	// CSRFSecret enables CSRF protection on form endpoints when non-empty.
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}
