package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/watchthis/user-service/internal/config"
)

// SessionKeyUserID is the only subject data kept in a session record.
const SessionKeyUserID = "user_id"

const flashKeyPrefix = "flash_"

const sqliteSessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

const postgresSessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BYTEA NOT NULL,
	expiry TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);`

// SessionManager wraps scs.SessionManager with application-specific methods.
// It owns the persisted session store; call Close during shutdown.
type SessionManager struct {
	*scs.SessionManager
	closeStore func()
}

// NewSessionManager creates a session manager backed by SQLite or Postgres,
// whichever the database config selects. sqlDB is the handle behind GORM and
// is only used for SQLite.
func NewSessionManager(ctx context.Context, dbCfg config.Database, sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	var closeStore func()
	switch dbCfg.Driver() {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, dbCfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		if _, err := pool.Exec(ctx, postgresSessionsSchema); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create sessions table: %w", err)
		}
		store := pgxstore.New(pool)
		sm.Store = store
		closeStore = func() {
			store.StopCleanup()
			pool.Close()
		}
	default:
		if _, err := sqlDB.ExecContext(ctx, sqliteSessionsSchema); err != nil {
			return nil, fmt.Errorf("failed to create sessions table: %w", err)
		}
		store := sqlite3store.New(sqlDB)
		sm.Store = store
		closeStore = store.StopCleanup
	}

	sm.Lifetime = cfg.SessionLifetime

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax so the cookie survives top-level navigation back from sibling services
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Domain = cfg.CookieDomain

	return &SessionManager{SessionManager: sm, closeStore: closeStore}, nil
}

// Close stops the store's cleanup goroutine and releases its connections.
func (sm *SessionManager) Close() {
	if sm.closeStore != nil {
		sm.closeStore()
		sm.closeStore = nil
	}
}

// Establish binds userID to the session under a fresh token.
func (sm *SessionManager) Establish(ctx context.Context, userID string) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyUserID, userID)
	return nil
}

// UserID returns the subject stored in the session, or "" when anonymous.
func (sm *SessionManager) UserID(ctx context.Context) string {
	return sm.GetString(ctx, SessionKeyUserID)
}

// AddFlash queues a one-time message of the given kind.
func (sm *SessionManager) AddFlash(ctx context.Context, kind, message string) {
	key := flashKeyPrefix + kind
	messages, _ := sm.Get(ctx, key).([]string)
	sm.Put(ctx, key, append(messages, message))
}

// PopFlashes returns and clears the queued messages of the given kind.
func (sm *SessionManager) PopFlashes(ctx context.Context, kind string) []string {
	messages, _ := sm.Pop(ctx, flashKeyPrefix+kind).([]string)
	return messages
}
