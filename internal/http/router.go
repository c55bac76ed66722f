package http

import (
	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	router.Use(cfg.Sessions.Sessions().SessionLoadSave())

	router.SetHTMLTemplate(loadTemplates())

	health := NewHealthController(cfg.Database, cfg.Version)
	ui := NewUIController(cfg.Sessions, cfg.Store)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Pages
	router.GET("/", ui.Welcome)
	router.GET("/dashboard", cfg.Sessions.EnsureAuthenticated(), ui.Dashboard)

	auth.NewAuthController(cfg.Sessions, cfg.Store, cfg.Guard, cfg.Auditor).RegisterRoutes(router)

	api := router.Group("/api/v1")
	auth.NewAPIController(cfg.JWT, cfg.Sessions, cfg.Store, cfg.Auditor).RegisterRoutes(api)
	api.GET("/profile", cfg.JWT.AuthenticateJWT(auth.GateHard), auth.RequireJWT(), Profile)

	if cfg.Auditor != nil {
		auditController := NewAuditController(cfg.Auditor)
		api.GET("/auth/events", cfg.JWT.AuthenticateJWT(auth.GateHard), auditController.GetAuditEvents)
	}

	return router
}
