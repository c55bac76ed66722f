package entrypoint

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchthis/user-service/internal/audit"
	"github.com/watchthis/user-service/internal/auth"
	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/database"
	auditdb "github.com/watchthis/user-service/internal/database/audit"
	"github.com/watchthis/user-service/internal/database/users"
	http_controllers "github.com/watchthis/user-service/internal/http"
	"github.com/watchthis/user-service/internal/scheduler"
	"github.com/watchthis/user-service/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds every long-lived component of the server.
type App struct {
	Config    *config.Config
	Database  *database.Database
	Sessions  *auth.SessionManager
	Store     *auth.Service
	Auditor   *audit.Service
	Tasks     *tasks.Client // nil when the task queue is disabled
	Scheduler *scheduler.AuditCleanupScheduler
	Handler   http.Handler
}

// Build wires the application from cfg. The caller owns the result and must
// call Close.
func Build(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Database: db}

	sqlDB, err := db.DB.DB()
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}

	app.Sessions, err = auth.NewSessionManager(ctx, cfg.Database, sqlDB, cfg.Auth)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Store = auth.NewService(users.NewRepository(db.DB), cfg.Auth)
	app.Auditor = audit.NewService(auditdb.NewRepository(db.DB))

	verifier := auth.NewLocalPasswordStrategy(app.Store)
	sessionAuth := auth.NewSessionAuthenticator(app.Sessions, app.Store, verifier)
	guard := auth.NewRedirectGuard(cfg.Redirect.AllowedHosts)

	var csrfSecret []byte
	if cfg.Auth.CSRFEnabled {
		csrfSecret, err = deriveCSRFSecret(cfg.Auth.SessionSecret)
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
	}

	if cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Tasks.DatabasePath, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.Tasks.Register(tasks.NewCleanupAuditEventsQueue(app.Auditor))
		app.Scheduler = scheduler.NewAuditCleanupScheduler(app.Tasks, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Store:         app.Store,
		Auditor:       app.Auditor,
		Sessions:      sessionAuth,
		JWT:           auth.NewJWTAuthenticator(tokens, app.Store, verifier, sessionAuth),
		Guard:         guard,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.Auth.SecureCookies,
		Version:       version,
	})
	app.Handler = withCORS(cfg.CORS.AllowedOrigins, router)

	slog.Info("redirect allow-list", "hosts", guard.Hosts())
	return app, nil
}

// Start launches the task workers and the cleanup scheduler.
func (a *App) Start(ctx context.Context) error {
	if a.Tasks == nil {
		return nil
	}
	a.Tasks.Start(ctx)
	return a.Scheduler.Start(ctx)
}

// Close stops background work and releases resources in dependency order:
// scheduler, task queue, pending audit writes, session store, database.
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Tasks != nil {
		if err := a.Tasks.Shutdown(ctx); err != nil {
			slog.Error("error shutting down task queue", "error", err)
		}
	}
	a.Auditor.Wait()
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
}

// deriveCSRFSecret turns SESSION_SECRET into the 32-byte key gorilla/csrf
// requires, or generates one when it is unset.
func deriveCSRFSecret(sessionSecret string) ([]byte, error) {
	if sessionSecret != "" {
		sum := sha256.Sum256([]byte(sessionSecret))
		return sum[:], nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	slog.Warn("SESSION_SECRET not set, using a random CSRF key; open forms will not survive a restart")
	return secret, nil
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down within
// the configured timeout.
func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}

	slog.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	slog.Info("server exiting")
	return nil
}

// Run builds the application and serves it until a shutdown signal arrives.
func Run(cfg *config.Config, version string) error {
	slog.SetDefault(NewLogger(os.Stdout, cfg.Log))
	slog.Info("starting user service", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Build(ctx, cfg, version)
	if err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		app.Close(ctx)
		return err
	}

	closed := false
	err = Serve(app.Handler, cfg, func(shutdownCtx context.Context) {
		app.Close(shutdownCtx)
		closed = true
	})
	if !closed {
		app.Close(ctx)
	}
	return err
}
