package auth

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

var errSessionNotLoaded = errors.New("session middleware not installed")

// sessionResponseWriter wraps gin.ResponseWriter to write the session cookie
// before headers are sent.
type sessionResponseWriter struct {
	gin.ResponseWriter
	sm            *SessionManager
	request       *http.Request
	wroteHeader   bool
	cookieWritten bool
}

func (w *sessionResponseWriter) WriteHeader(code int) {
	w.beforeHeader()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionResponseWriter) WriteHeaderNow() {
	w.beforeHeader()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionResponseWriter) Write(b []byte) (int, error) {
	w.beforeHeader()
	return w.ResponseWriter.Write(b)
}

func (w *sessionResponseWriter) WriteString(s string) (int, error) {
	w.beforeHeader()
	return w.ResponseWriter.WriteString(s)
}

func (w *sessionResponseWriter) beforeHeader() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if err := w.commit(); err != nil {
		slog.Error("failed to save session", "path", w.request.URL.Path, "error", err)
	}
}

// commit persists a modified session and sets its cookie. It runs at most once.
func (w *sessionResponseWriter) commit() error {
	if w.cookieWritten {
		return nil
	}

	ctx := w.request.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err != nil {
			return err
		}
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
	w.cookieWritten = true
	return nil
}

// Implement http.Hijacker for WebSocket support
func (w *sessionResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// SessionLoadSave returns a Gin middleware that loads the session from the
// request cookie and saves it when the response is written.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		cookie, err := c.Request.Cookie(sm.Cookie.Name)
		if err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			slog.Error("failed to load session", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		srw := &sessionResponseWriter{
			ResponseWriter: c.Writer,
			sm:             sm,
			request:        c.Request,
		}
		c.Writer = srw

		c.Next()

		// Ensure session cookie is written even if no response body
		if !srw.wroteHeader {
			srw.beforeHeader()
		}
	}
}

// Save persists the session and sets its cookie now, before any response is
// produced. Handlers call it after login so the redirect that follows always
// carries a cookie naming a stored session.
func (sm *SessionManager) Save(c *gin.Context) error {
	srw, ok := c.Writer.(*sessionResponseWriter)
	if !ok {
		return errSessionNotLoaded
	}
	return srw.commit()
}
