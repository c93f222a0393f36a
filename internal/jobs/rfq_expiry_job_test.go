package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itqan-erp/procurement-api/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubExpirer struct {
	mu     sync.Mutex
	calls  int
	closed int
	err    error
}

func (s *stubExpirer) CloseExpiredRFQs(_ context.Context, _ time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.closed, s.err
}

func (s *stubExpirer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPurger struct {
	before  time.Time
	removed int64
}

func (s *stubPurger) Purge(_ context.Context, before time.Time) (int64, error) {
	s.before = before
	return s.removed, nil
}

func TestRFQExpiryJob_Run(t *testing.T) {
	expirer := &stubExpirer{closed: 3}
	job := jobs.NewRFQExpiryJob(expirer, zap.NewNop(), time.Minute)

	job.Run()
	assert.Equal(t, 1, expirer.callCount())
}

func TestRFQExpiryJob_RunSwallowsError(t *testing.T) {
	expirer := &stubExpirer{err: errors.New("database gone")}
	job := jobs.NewRFQExpiryJob(expirer, zap.NewNop(), time.Minute)

	// The sweep logs and returns; the scheduler must keep calling it
	job.Run()
	job.Run()
	assert.Equal(t, 2, expirer.callCount())
}

func TestAuditPurgeJob_CutoffRespectsRetention(t *testing.T) {
	purger := &stubPurger{removed: 12}
	job := jobs.NewAuditPurgeJob(purger, 90, zap.NewNop(), time.Minute)

	job.Run()
	expected := time.Now().AddDate(0, 0, -90)
	assert.WithinDuration(t, expected, purger.before, 5*time.Second)
}

func TestRegisterRFQExpiryJob(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())
	expirer := &stubExpirer{}

	err := jobs.RegisterRFQExpiryJob(scheduler, expirer, zap.NewNop(), "0 0 * * * *", false)
	require.NoError(t, err)
	assert.Contains(t, scheduler.GetJobNames(), jobs.RFQExpiryJobName)

	// Duplicate registration is rejected
	err = jobs.RegisterRFQExpiryJob(scheduler, expirer, zap.NewNop(), "0 0 * * * *", false)
	assert.Error(t, err)
}

func TestRegisterRFQExpiryJob_BadExpression(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())

	err := jobs.RegisterRFQExpiryJob(scheduler, &stubExpirer{}, zap.NewNop(), "not-a-cron", false)
	assert.Error(t, err)
}

func TestRegisterAuditPurgeJob_DisabledByRetention(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())

	err := jobs.RegisterAuditPurgeJob(scheduler, &stubPurger{}, 0, zap.NewNop())
	require.NoError(t, err)
	assert.NotContains(t, scheduler.GetJobNames(), jobs.AuditPurgeJobName)

	err = jobs.RegisterAuditPurgeJob(scheduler, &stubPurger{}, 30, zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, scheduler.GetJobNames(), jobs.AuditPurgeJobName)
}

func TestSchedulerRemoveJob(t *testing.T) {
	scheduler := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, scheduler.AddJob("sweep", "@every 1h", func() {}))

	require.NoError(t, scheduler.RemoveJob("sweep"))
	assert.Empty(t, scheduler.GetJobNames())

	assert.Error(t, scheduler.RemoveJob("sweep"))
}
