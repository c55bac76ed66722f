package auth

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/watchthis/user-service/internal/config"
)

// RedirectHopPath serves the intermediate page that forwards to callback URLs.
const RedirectHopPath = "/redirect"

// RedirectFallback is where a missing or rejected hop target lands.
const RedirectFallback = "/dashboard"

// The hop answers with a page rather than a 302 so a form POST never ends in
// a cross-origin HTTP redirect, which form-action CSP would block.
var bridgeTemplate = template.Must(template.New("bridge").Parse(`<!DOCTYPE html>
<html>
<head>
<meta http-equiv="refresh" content="0; url={{.}}">
<title>Redirecting...</title>
</head>
<body>
<p>Redirecting to <a href="{{.}}">{{.}}</a>...</p>
<script>window.location.href = {{.}};</script>
</body>
</html>
`))

// RedirectGuard decides which callback URLs may be redirected to.
// The host list is fixed at construction.
type RedirectGuard struct {
	hosts []string
}

// NewRedirectGuard builds a guard for hosts. localhost and 127.0.0.1 are
// always allowed.
func NewRedirectGuard(hosts []string) *RedirectGuard {
	merged := config.RedirectHosts(strings.ToLower(strings.Join(hosts, ",")))
	return &RedirectGuard{hosts: merged}
}

// Hosts returns the effective allow-list.
func (g *RedirectGuard) Hosts() []string {
	return append([]string(nil), g.hosts...)
}

// IsAllowed reports whether raw is an absolute http(s) URL whose host is
// an allow-listed host or a subdomain of one.
func (g *RedirectGuard) IsAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return false
	}
	for _, host := range g.hosts {
		if hostname == host || strings.HasSuffix(hostname, "."+host) {
			return true
		}
	}
	return false
}

// Dispatch finishes a login, signup or logout. With no callback, or one equal
// to the flow's default, it redirects straight to defaultDest; otherwise it
// routes through the hop, which applies the allow-list.
func (g *RedirectGuard) Dispatch(c *gin.Context, callbackURL, defaultDest string) {
	if callbackURL == "" || callbackURL == defaultDest {
		c.Redirect(http.StatusFound, defaultDest)
		return
	}
	c.Redirect(http.StatusFound, RedirectHopPath+"?to="+url.QueryEscape(callbackURL))
}

// ServeHop handles GET /redirect?to=<url>. Allowed targets get the bridge
// page; anything else falls back to RedirectFallback without an error.
func (g *RedirectGuard) ServeHop(c *gin.Context) {
	target := c.Query("to")
	if target == "" {
		c.Redirect(http.StatusFound, RedirectFallback)
		return
	}

	if !g.IsAllowed(target) {
		slog.Warn("redirect target rejected", "target", target)
		c.Redirect(http.StatusFound, RedirectFallback)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := bridgeTemplate.Execute(c.Writer, target); err != nil {
		slog.Error("failed to render redirect page", "error", err)
	}
}
