package tasks

import (
	"time"

	"github.com/watchthis/user-service/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}

// ConfigFrom builds a queue Config from application settings, keeping
// defaults for anything left unset.
func ConfigFrom(cfg config.Tasks) Config {
	c := DefaultConfig()
	if cfg.Workers > 0 {
		c.Workers = cfg.Workers
	}
	if cfg.ReleaseAfter > 0 {
		c.ReleaseAfter = cfg.ReleaseAfter
	}
	return c
}
