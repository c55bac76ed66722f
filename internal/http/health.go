package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/database"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version,omitempty"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

// Status reports database connectivity; 503 when the database is unreachable.
func (h *HealthController) Status(c *gin.Context) {
	health := HealthResponse{
		Status:    "healthy",
		Service:   config.ServiceName,
		Version:   h.version,
		Database:  "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	statusCode := http.StatusOK
	if h.db == nil {
		health.Status = "unhealthy"
		health.Database = "not configured"
		statusCode = http.StatusServiceUnavailable
	} else if err := h.db.Ping(ctx); err != nil {
		slog.Error("health check failed", "error", err)
		health.Status = "unhealthy"
		health.Database = "disconnected"
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// Ping answers with the service name and version.
func (h *HealthController) Ping(c *gin.Context) {
	c.String(http.StatusOK, "%s %s", config.ServiceName, h.version)
}
