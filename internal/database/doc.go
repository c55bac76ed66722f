// Package database provides the data access layer for the service.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (SQLite or Postgres) and migrations
//	├── users/           # Credential records
//	└── audit/           # Authentication audit trail
//
// A DATABASE_URL beginning with postgres:// or postgresql:// selects Postgres;
// anything else is treated as a SQLite file path.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//	usersRepo := users.NewRepository(db.DB)
//	user, err := usersRepo.FindByUsername(ctx, "alice")
package database
