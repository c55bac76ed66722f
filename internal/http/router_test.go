package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/database"
	auditdb "github.com/watchthis/user-service/internal/database/audit"
	"github.com/watchthis/user-service/internal/database/users"
)

const testPassword = "Str0ngPass!"

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	db      *database.Database
	store   *auth.Service
	auditor *audit.Service
	router  *gin.Engine
	server  *httptest.Server
}

func setupTestApp(t *testing.T, csrfSecret []byte) *testApp {
	t.Helper()

	db, err := database.NewDatabase(config.Database{URL: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	authCfg := config.Auth{SessionLifetime: time.Hour, BcryptCost: bcrypt.MinCost}
	sessions, err := auth.NewSessionManager(context.Background(), config.Database{}, sqlDB, authCfg)
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	tokens, err := auth.NewTokenService(config.JWT{
		Secret:           "router-test-secret",
		AccessExpiresIn:  time.Hour,
		RefreshExpiresIn: 24 * time.Hour,
		Issuer:           "watchthis-user-service",
		Audience:         "watchthis-services",
	})
	require.NoError(t, err)

	store := auth.NewService(users.NewRepository(db.DB), authCfg)
	verifier := auth.NewLocalPasswordStrategy(store)
	sessionAuth := auth.NewSessionAuthenticator(sessions, store, verifier)
	auditor := audit.NewService(auditdb.NewRepository(db.DB))
	t.Cleanup(auditor.Wait)

	router := NewRouter(RouterConfig{
		Database:   db,
		Store:      store,
		Auditor:    auditor,
		Sessions:   sessionAuth,
		JWT:        auth.NewJWTAuthenticator(tokens, store, verifier, sessionAuth),
		Guard:      auth.NewRedirectGuard([]string{"watchthis.dev"}),
		CSRFSecret: csrfSecret,
		Version:    "1.2.3",
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{db: db, store: store, auditor: auditor, router: router, server: server}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (app *testApp) get(t *testing.T, client *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(app.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (app *testApp) post(t *testing.T, client *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(app.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

var csrfFieldPattern = regexp.MustCompile(`name="` + regexp.QuoteMeta(auth.CSRFFormField) + `" value="([^"]+)"`)

func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfFieldPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "page should carry a CSRF field")
	return m[1]
}

func TestRouter_BrowserScenario(t *testing.T) {
	app := setupTestApp(t, nil)
	browser := newBrowser(t)

	resp, body := app.get(t, browser, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/signup"`)

	resp, _ = app.post(t, browser, "/signup", credentials("alice123", testPassword))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body = app.get(t, browser, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Signed in as <strong>alice123</strong>")

	// The landing page forwards a logged-in user
	resp, _ = app.get(t, browser, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, _ = app.post(t, browser, "/logout", url.Values{})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = app.get(t, browser, "/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = app.post(t, browser, "/login", credentials("alice123", testPassword))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, _ = app.get(t, browser, "/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_DashboardListsUsersNewestFirst(t *testing.T) {
	app := setupTestApp(t, nil)
	ctx := context.Background()

	_, err := app.store.CreateUser(ctx, "first_user", testPassword)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = app.store.CreateUser(ctx, "second_user", testPassword)
	require.NoError(t, err)

	browser := newBrowser(t)
	resp, _ := app.post(t, browser, "/login", credentials("first_user", testPassword))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, body := app.get(t, browser, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := strings.Index(body, "<td>first_user</td>")
	second := strings.Index(body, "<td>second_user</td>")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, second, first)
}

func TestRouter_LoginPageRendersFlashAndCallback(t *testing.T) {
	app := setupTestApp(t, nil)
	browser := newBrowser(t)

	form := credentials("nobody", testPassword)
	resp, _ := app.post(t, browser, "/login", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	callback := "https://app.watchthis.dev/after"
	resp, body := app.get(t, browser, "/login?callbackUrl="+url.QueryEscape(callback))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<p class="error">Invalid username or password.</p>`)
	assert.Contains(t, body, `name="callbackUrl" value="`+callback+`"`)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestRouter_CSRFProtectedForms(t *testing.T) {
	app := setupTestApp(t, []byte("0123456789abcdef0123456789abcdef"))
	browser := newBrowser(t)

	// Without a token the form post is rejected
	resp, _ := app.post(t, browser, "/signup", credentials("alice123", testPassword))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := app.get(t, browser, "/signup")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	form := credentials("alice123", testPassword)
	form.Set(auth.CSRFFormField, csrfToken(t, body))

	resp, _ = app.post(t, browser, "/signup", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body = app.get(t, browser, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := csrfToken(t, body)

	resp, _ = app.post(t, browser, "/logout", url.Values{auth.CSRFFormField: {token}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	// JSON API routes are not subject to the form token
	resp, err := browser.Post(app.server.URL+"/api/v1/auth/login", "application/json",
		strings.NewReader(`{"username":"alice123","password":"`+testPassword+`"}`))
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, _ := app.get(t, newBrowser(t), "/login")
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "form-action 'self'")
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestRouter_Profile(t *testing.T) {
	app := setupTestApp(t, nil)
	_, err := app.store.CreateUser(context.Background(), "alice123", testPassword)
	require.NoError(t, err)
	client := newBrowser(t)

	resp, err := client.Post(app.server.URL+"/api/v1/auth/login", "application/json",
		strings.NewReader(`{"username":"alice123","password":"`+testPassword+`"}`))
	require.NoError(t, err)
	var login struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &login))
	require.NotEmpty(t, login.Data.AccessToken)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/profile", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "AUTHENTICATION_REQUIRED")

	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	resp, err = client.Do(req)
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"username":"alice123"`)
	assert.Contains(t, body, `"success":true`)

	app.auditor.Wait()
	req, err = http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/auth/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	resp, err = client.Do(req)
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events struct {
		Data struct {
			Events []struct {
				Action string `json:"action"`
				Status string `json:"status"`
			} `json:"events"`
			TotalEvents int64 `json:"totalEvents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &events))
	require.Equal(t, int64(1), events.Data.TotalEvents)
	assert.Equal(t, "token_login", events.Data.Events[0].Action)
	assert.Equal(t, "success", events.Data.Events[0].Status)
}
