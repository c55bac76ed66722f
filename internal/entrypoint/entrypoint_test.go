package entrypoint

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchthis/user-service/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		HTTP:   config.HTTP{Host: "127.0.0.1", Port: 0},
		Global: config.Global{ShutdownTimeoutInSeconds: 1},
		Database: config.Database{
			URL: filepath.Join(dir, "users.db"),
		},
		Auth: config.Auth{
			SessionSecret:   "test-session-secret",
			SessionLifetime: time.Hour,
			BcryptCost:      4,
			CSRFEnabled:     true,
		},
		JWT: config.JWT{
			Secret:           "test-jwt-secret",
			AccessExpiresIn:  time.Hour,
			RefreshExpiresIn: 24 * time.Hour,
			Issuer:           "watchthis-user-service",
			Audience:         "watchthis-services",
		},
		Redirect: config.Redirect{AllowedHosts: config.RedirectHosts("watchthis.dev")},
		CORS:     config.CORS{AllowedOrigins: []string{"https://app.watchthis.dev"}},
		Audit:    config.Audit{RetentionDays: 30, CleanupSchedule: "0 3 * * *"},
		Tasks: config.Tasks{
			Enabled:      true,
			DatabasePath: filepath.Join(dir, "tasks.db"),
			Workers:      1,
			ReleaseAfter: time.Minute,
		},
		Log: config.Log{Level: "info", Format: "text"},
	}
}

func TestBuild_ServesRequests(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Build(ctx, cfg, "9.9.9")
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))
	assert.True(t, app.Scheduler.IsRunning())

	w := httptest.NewRecorder()
	app.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "watchthis-user-service 9.9.9", w.Body.String())

	w = httptest.NewRecorder()
	app.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// CSRF is on, so a bare form post is refused
	w = httptest.NewRecorder()
	app.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=a&password=b")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer closeCancel()
	app.Close(closeCtx)
	assert.False(t, app.Scheduler.IsRunning())
}

func TestBuild_TasksDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tasks.Enabled = false
	cfg.Auth.CSRFEnabled = false

	app, err := Build(context.Background(), cfg, "dev")
	require.NoError(t, err)
	defer app.Close(context.Background())

	assert.Nil(t, app.Tasks)
	assert.Nil(t, app.Scheduler)
	require.NoError(t, app.Start(context.Background()))
}

func TestBuild_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.CleanupSchedule = "whenever"

	app, err := Build(context.Background(), cfg, "dev")
	require.NoError(t, err)
	defer app.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.Error(t, app.Start(ctx))
}

func TestWithCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := withCORS([]string{"https://app.watchthis.dev"}, next)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/me", nil)
	req.Header.Set("Origin", "https://app.watchthis.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "https://app.watchthis.dev", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// No origins configured leaves the handler untouched
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.watchthis.dev")
	w = httptest.NewRecorder()
	withCORS(nil, next).ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDeriveCSRFSecret(t *testing.T) {
	a, err := deriveCSRFSecret("secret")
	require.NoError(t, err)
	b, err := deriveCSRFSecret("secret")
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.Equal(t, a, b)

	random, err := deriveCSRFSecret("")
	require.NoError(t, err)
	assert.Len(t, random, 32)
	assert.NotEqual(t, a, random)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.Log{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, config.ServiceName, entry["service"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
