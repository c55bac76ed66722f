package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrDuplicateUsername      = errors.New("username already exists")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrMissingCredentials     = errors.New("username and password are required")
	ErrTokenInvalid           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
	ErrInvalidTokenType       = errors.New("invalid token type")
	ErrUserNotFound           = errors.New("user not found")
	ErrNoSession              = errors.New("no valid session found")
	ErrUserIDMissing          = errors.New("user id missing from session")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrMissingRefreshToken    = errors.New("refresh token is required")
	ErrInvalidRefreshToken    = errors.New("invalid refresh token")
	ErrConversion             = errors.New("failed to convert session to token")
)

// APIError is the client-visible shape of a failure on the JSON surface.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

// apiErrors maps each taxonomy kind to its envelope. Order matters only for
// wrapped errors that match more than one kind, which none currently do.
var apiErrors = []struct {
	err error
	api APIError
}{
	{ErrMissingCredentials, APIError{"MISSING_CREDENTIALS", "Username and password are required", http.StatusBadRequest}},
	{ErrInvalidCredentials, APIError{"INVALID_CREDENTIALS", "Invalid username or password", http.StatusUnauthorized}},
	{ErrMissingRefreshToken, APIError{"MISSING_REFRESH_TOKEN", "Refresh token is required", http.StatusBadRequest}},
	{ErrInvalidRefreshToken, APIError{"INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", http.StatusUnauthorized}},
	{ErrInvalidTokenType, APIError{"INVALID_TOKEN_TYPE", "Invalid token type", http.StatusUnauthorized}},
	{ErrUserNotFound, APIError{"USER_NOT_FOUND", "User not found", http.StatusUnauthorized}},
	{ErrTokenExpired, APIError{"TOKEN_EXPIRED", "Token has expired", http.StatusUnauthorized}},
	{ErrTokenInvalid, APIError{"INVALID_TOKEN", "Invalid token", http.StatusUnauthorized}},
	{ErrAuthenticationRequired, APIError{"AUTHENTICATION_REQUIRED", "Authentication required", http.StatusUnauthorized}},
	{ErrNoSession, APIError{"NO_SESSION", "No valid session found", http.StatusUnauthorized}},
	{ErrUserIDMissing, APIError{"USER_ID_MISSING", "User ID not found in session", http.StatusUnauthorized}},
	{ErrConversion, APIError{"CONVERSION_ERROR", "Failed to convert session to JWT", http.StatusInternalServerError}},
	{ErrDuplicateUsername, APIError{"DUPLICATE_USERNAME", "Username already exists", http.StatusConflict}},
	{ErrPasswordTooShort, APIError{"INVALID_PASSWORD", "Password must be at least 8 characters long", http.StatusBadRequest}},
	{ErrPasswordTooLong, APIError{"INVALID_PASSWORD", "Password exceeds maximum length of 72 bytes", http.StatusBadRequest}},
	{ErrPasswordTooWeak, APIError{"INVALID_PASSWORD", "Password must contain at least one lowercase letter, one uppercase letter, and one number", http.StatusBadRequest}},
}

// ToAPIError classifies err. Unknown errors become INTERNAL_ERROR.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range apiErrors {
		if errors.Is(err, m.err) {
			api := m.api
			return &api
		}
	}
	return &APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error", HTTPStatus: http.StatusInternalServerError}
}

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// WriteSuccess renders {success:true,data}.
func WriteSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// WriteError renders {success:false,error:{code,message}} and aborts the chain.
func WriteError(c *gin.Context, err error) {
	api := ToAPIError(err)
	if api.HTTPStatus >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(api.HTTPStatus, envelope{Success: false, Error: api})
}
