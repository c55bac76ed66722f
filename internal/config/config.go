package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		JWT
		Redirect
		CORS
		Audit
		Tasks
		Log
	}

	HTTP struct {
		Port    int32
		Host    string
		BaseURL string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		URL string
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
		CSRFEnabled     bool
		CookieDomain    string
	}
	JWT struct {
		// Secret signs access and refresh tokens. When empty a random secret is
		// generated at startup, so tokens do not survive a restart.
		Secret           string
		AccessExpiresIn  time.Duration
		RefreshExpiresIn time.Duration
		Issuer           string
		Audience         string
	}
	Redirect struct {
		AllowedHosts []string
	}
	CORS struct {
		AllowedOrigins []string
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled      bool
		DatabasePath string
		Workers      int
		ReleaseAfter time.Duration
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
)

// Driver reports which database backend the URL selects.
func (d Database) Driver() DatabaseDriver {
	if strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// loadDotEnv loads .env.test when APP_ENV=test, otherwise .env. A missing file is fine.
func loadDotEnv() {
	envFile := ".env"
	if os.Getenv("APP_ENV") == "test" {
		envFile = ".env.test"
	}
	_ = godotenv.Load(envFile)
}

func NewConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8583)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("base_url", "http://localhost:8583")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_url", DefaultDatabaseURL)

	// Session defaults
	v.SetDefault("session_secret", "") // Auto-generated if empty
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("csrf_enabled", true)

	// Token defaults
	v.SetDefault("jwt_secret", "") // Auto-generated if empty
	v.SetDefault("jwt_expires_in", "24h")
	v.SetDefault("jwt_refresh_expires_in", "7d")
	v.SetDefault("jwt_issuer", "watchthis-user-service")
	v.SetDefault("jwt_audience", "watchthis-services")

	v.SetDefault("allowed_redirect_hosts", "")
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_database_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	sessionLifetime, err := ParseLifetime(v.GetString("SESSION_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_LIFETIME: %w", err)
	}
	accessExpiresIn, err := ParseLifetime(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	refreshExpiresIn, err := ParseLifetime(v.GetString("JWT_REFRESH_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}

	baseURL := v.GetString("BASE_URL")

	return &Config{
		HTTP: HTTP{
			Port:    v.GetInt32("PORT"),
			Host:    v.GetString("HOST"),
			BaseURL: baseURL,
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL: v.GetString("DATABASE_URL"),
		},
		Auth: Auth{
			SessionSecret:   v.GetString("SESSION_SECRET"),
			SessionLifetime: sessionLifetime,
			BcryptCost:      v.GetInt("BCRYPT_COST"),
			SecureCookies:   v.GetBool("SECURE_COOKIES"),
			CSRFEnabled:     v.GetBool("CSRF_ENABLED"),
			CookieDomain:    CookieDomain(baseURL),
		},
		JWT: JWT{
			Secret:           v.GetString("JWT_SECRET"),
			AccessExpiresIn:  accessExpiresIn,
			RefreshExpiresIn: refreshExpiresIn,
			Issuer:           v.GetString("JWT_ISSUER"),
			Audience:         v.GetString("JWT_AUDIENCE"),
		},
		Redirect: Redirect{
			AllowedHosts: RedirectHosts(v.GetString("ALLOWED_REDIRECT_HOSTS")),
		},
		CORS: CORS{
			AllowedOrigins: SplitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:      v.GetBool("TASKS_ENABLED"),
			DatabasePath: v.GetString("TASKS_DATABASE_PATH"),
			Workers:      v.GetInt("TASK_WORKERS"),
			ReleaseAfter: v.GetDuration("TASK_RELEASE_AFTER"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}, nil
}

// ParseLifetime parses a Go duration, additionally accepting a whole number of
// days with a "d" suffix ("7d").
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// SplitList splits a comma separated value, trimming blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RedirectHosts merges the configured hosts with DefaultRedirectHosts,
// preserving order and dropping duplicates.
func RedirectHosts(raw string) []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, h := range append(append([]string{}, DefaultRedirectHosts...), SplitList(raw)...) {
		if seen[h] {
			continue
		}
		seen[h] = true
		hosts = append(hosts, h)
	}
	return hosts
}

// CookieDomain derives the session cookie domain from the base URL: the host
// with its first label removed, so sibling services share the cookie.
// "user.watchthis.dev" yields "watchthis.dev"; hosts with fewer than three
// labels and IP addresses yield "" (host-only cookie).
func CookieDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return strings.Join(labels[1:], ".")
}
