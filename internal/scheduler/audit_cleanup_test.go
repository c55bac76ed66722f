package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (r *recordingEnqueuer) EnqueueAuditCleanup(_ context.Context, retentionDays int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, retentionDays)
	return "task-1", r.err
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("not a schedule"))
	assert.Error(t, ValidateCronSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestAuditCleanupScheduler_StartStop(t *testing.T) {
	s := NewAuditCleanupScheduler(&recordingEnqueuer{}, "0 3 * * *", 30)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())

	// Starting twice is a no-op
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	s.Stop()
}

func TestAuditCleanupScheduler_StopsWithContext(t *testing.T) {
	s := NewAuditCleanupScheduler(&recordingEnqueuer{}, "0 3 * * *", 30)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestAuditCleanupScheduler_EmptyScheduleDisabled(t *testing.T) {
	s := NewAuditCleanupScheduler(&recordingEnqueuer{}, "", 30)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestAuditCleanupScheduler_InvalidSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler(&recordingEnqueuer{}, "every day", 30)

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestAuditCleanupScheduler_RunNow(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	s := NewAuditCleanupScheduler(enqueuer, "0 3 * * *", 7)

	require.NoError(t, s.RunNow(context.Background()))
	assert.Equal(t, []int{7}, enqueuer.calls)

	enqueuer.err = assert.AnError
	assert.ErrorIs(t, s.RunNow(context.Background()), assert.AnError)
}

func TestAuditCleanupScheduler_EnqueueSkipsCancelledContext(t *testing.T) {
	enqueuer := &recordingEnqueuer{}
	s := NewAuditCleanupScheduler(enqueuer, "0 3 * * *", 7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.enqueue(ctx)

	assert.Empty(t, enqueuer.calls)
}
