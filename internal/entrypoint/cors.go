package entrypoint

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/watchthis/user-service/internal/auth"
)

// withCORS lets browser clients of sibling services call the API with
// credentials. With no configured origins the handler is returned unchanged.
func withCORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", auth.CSRFTokenHeader},
		MaxAge:           3600,
		AllowCredentials: true,
	})
	return c.Handler(next)
}
