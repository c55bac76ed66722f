package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/entities"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

type auditEventsResponse struct {
	Events      []entities.AuditEvent `json:"events"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int                   `json:"totalPages"`
	TotalEvents int64                 `json:"totalEvents"`
}

// GetAuditEvents returns the caller's own authentication events, newest first.
// GET /api/v1/auth/events
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	user := auth.GetUser(c)
	if user == nil {
		auth.WriteError(c, auth.ErrAuthenticationRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	events, total, err := ac.auditService.GetEvents(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		slog.Error("failed to load audit events", "user_id", user.ID, "error", err)
		auth.WriteError(c, err)
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	auth.WriteSuccess(c, http.StatusOK, auditEventsResponse{
		Events:      events,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		TotalEvents: total,
	})
}
