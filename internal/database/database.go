package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/entities"
)

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
}

// Open connects to the configured database without migrating it.
func Open(cfg config.Database) (*Database, error) {
	var dialector gorm.Dialector
	driver := cfg.Driver()
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.URL)
	default:
		sep := "?"
		if strings.Contains(cfg.URL, "?") {
			sep = "&"
		}
		// Busy timeout keeps concurrent session writes from failing fast.
		dialector = sqlite.Open(cfg.URL + sep + "_busy_timeout=5000")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{DB: db, Driver: driver}, nil
}

// NewDatabase connects and migrates the schema.
func NewDatabase(cfg config.Database) (*Database, error) {
	database, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	// Auto-migrate all entities
	err = database.DB.AutoMigrate(
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("database initialized", "driver", database.Driver)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity, used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
