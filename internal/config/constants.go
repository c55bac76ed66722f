package config

const (
	// ServiceName is reported by /ping and /health.
	ServiceName = "watchthis-user-service"

	// DefaultDatabaseURL is the default SQLite database used when DATABASE_URL is unset.
	DefaultDatabaseURL = "./user-service.db"

	// DefaultTasksDatabasePath is the dedicated SQLite file for the background task queue.
	DefaultTasksDatabasePath = "./user-service-tasks.db"
)

// Default redirect hosts are always allowed regardless of configuration.
var DefaultRedirectHosts = []string{"localhost", "127.0.0.1"}
