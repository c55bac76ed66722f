package auth

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFFormField is the form field name gorilla/csrf reads the token from.
const CSRFFormField = "gorilla.csrf.Token"

// CSRFTokenHeader is the header name for CSRF token in AJAX requests.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFMiddleware creates a Gin middleware protecting the cookie-authenticated
// form endpoints. JSON API routes under /api/ are skipped: they either carry a
// bearer token or only read state.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.FieldName(CSRFFormField),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}

		r := c.Request
		if !secure {
			// Without TLS there is no trustworthy Referer to compare against
			r = csrf.PlaintextHTTPRequest(r)
		}

		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(contextKeyCSRFToken, csrf.Token(r))
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, r)
		if !passed {
			c.Abort()
		}
	}
}

// csrfErrorHandler handles CSRF validation failures.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"CSRF_INVALID","message":"CSRF token invalid or missing"}}`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Session Expired</title></head>
<body>
<h1>Session Expired</h1>
<p>Your session has expired or the form submission was invalid.</p>
<p><a href="javascript:history.back()">Go back and try again</a></p>
</body>
</html>`))
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(contextKeyCSRFToken); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// CSRFTokenField returns a hidden input carrying the CSRF token, or nothing
// when protection is off.
func CSRFTokenField(c *gin.Context) template.HTML {
	token := GetCSRFToken(c)
	if token == "" {
		return ""
	}
	return template.HTML(`<input type="hidden" name="` + CSRFFormField + `" value="` + template.HTMLEscapeString(token) + `">`)
}
