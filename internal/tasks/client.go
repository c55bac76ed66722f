package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// ErrStopTimeout is returned by Shutdown when workers were still busy at the deadline.
var ErrStopTimeout = errors.New("task workers did not finish before the deadline")

// Client runs the background queue on a dedicated SQLite file. The queue never
// shares a database with user data, even when users live in Postgres.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int
	log     *slog.Logger
	running atomic.Bool
}

// NewClient opens (creating if needed) the queue database at dbPath and installs
// the backlite schema.
func NewClient(dbPath string, cfg Config) (*Client, error) {
	db, err := openQueueDB(dbPath, cfg.Workers)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "tasks")
	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          logger, // *slog.Logger satisfies backlite.Logger
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}

	if err := queue.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install task queue schema: %w", err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers, log: logger}, nil
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// Workers each hold a connection while a task runs; the rest serve enqueues.
	db.SetMaxOpenConns(workers + 4)
	db.SetMaxIdleConns(workers + 1)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start launches the workers. It returns immediately, and a second call is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	c.queue.Start(ctx)
	c.log.Info("task queue started", "workers", c.workers)
}

// Running reports whether workers are active.
func (c *Client) Running() bool {
	return c.running.Load()
}

// Shutdown waits for in-flight tasks until ctx expires, then closes the queue
// database. Tasks left unfinished are released back to the queue after
// ReleaseAfter and retried on the next start.
func (c *Client) Shutdown(ctx context.Context) error {
	var stopErr error
	if c.running.Swap(false) {
		if c.queue.Stop(ctx) {
			c.log.Info("task queue stopped")
		} else {
			c.log.Warn("task queue stopped before workers finished")
			stopErr = ErrStopTimeout
		}
	}
	if err := c.db.Close(); err != nil {
		return errors.Join(stopErr, fmt.Errorf("failed to close tasks database: %w", err))
	}
	return stopErr
}

// Add starts an enqueue operation; finish it with Save or Tx.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

// Status reports the state of a queued task.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.queue.Status(ctx, taskID)
}
