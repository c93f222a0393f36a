package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RFQExpiryJobName is the name of the RFQ expiry sweep job
const RFQExpiryJobName = "rfq_expiry"

// AuditPurgeJobName is the name of the audit retention job
const AuditPurgeJobName = "audit_purge"

// DefaultJobTimeout bounds how long a single sweep may run
const DefaultJobTimeout = 5 * time.Minute

// RFQExpirer defines the interface for closing RFQs past their deadline.
// This interface allows the job to call the service without importing the service package directly.
type RFQExpirer interface {
	// CloseExpiredRFQs closes all open RFQs with a deadline before now
	// and returns how many were closed.
	CloseExpiredRFQs(ctx context.Context, now time.Time) (int, error)
}

// AuditPurger defines the interface for deleting audit entries past retention.
type AuditPurger interface {
	// Purge removes audit log entries created before the given time and
	// returns how many rows were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// RFQExpiryJob sweeps open RFQs and closes the ones whose deadline has passed.
type RFQExpiryJob struct {
	expirer RFQExpirer
	logger  *zap.Logger
	timeout time.Duration
}

// NewRFQExpiryJob creates a new RFQ expiry job.
func NewRFQExpiryJob(expirer RFQExpirer, logger *zap.Logger, timeout time.Duration) *RFQExpiryJob {
	return &RFQExpiryJob{
		expirer: expirer,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes the expiry sweep.
// This is called by the scheduler according to the cron expression.
func (j *RFQExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	closed, err := j.expirer.CloseExpiredRFQs(ctx, start)
	if err != nil {
		j.logger.Error("rfq expiry sweep failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if closed > 0 {
		j.logger.Info("rfq expiry sweep completed",
			zap.Int("closed", closed),
			zap.Duration("duration", time.Since(start)))
	}
}

// AuditPurgeJob deletes audit log entries older than the retention window.
type AuditPurgeJob struct {
	purger        AuditPurger
	retentionDays int
	logger        *zap.Logger
	timeout       time.Duration
}

// NewAuditPurgeJob creates a new audit retention job.
func NewAuditPurgeJob(purger AuditPurger, retentionDays int, logger *zap.Logger, timeout time.Duration) *AuditPurgeJob {
	return &AuditPurgeJob{
		purger:        purger,
		retentionDays: retentionDays,
		logger:        logger,
		timeout:       timeout,
	}
}

// Run executes the retention purge.
func (j *AuditPurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	cutoff := start.AddDate(0, 0, -j.retentionDays)
	removed, err := j.purger.Purge(ctx, cutoff)
	if err != nil {
		j.logger.Error("audit retention purge failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if removed > 0 {
		j.logger.Info("audit retention purge completed",
			zap.Int64("removed", removed),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterRFQExpiryJob registers the RFQ expiry sweep with the scheduler.
// The cronExpr should be a valid cron expression with a seconds field
// (e.g., "0 0 * * * *" for every hour).
// If runOnStartup is true, a sweep runs immediately in a background goroutine
// so RFQs that expired while the API was down are closed without waiting for
// the first scheduled run.
func RegisterRFQExpiryJob(scheduler *Scheduler, expirer RFQExpirer, logger *zap.Logger, cronExpr string, runOnStartup bool) error {
	job := NewRFQExpiryJob(expirer, logger, DefaultJobTimeout)

	if runOnStartup {
		go job.Run()
	}

	return scheduler.AddJob(RFQExpiryJobName, cronExpr, job.Run)
}

// RegisterAuditPurgeJob registers the audit retention job with the scheduler.
// A retentionDays of zero or less disables the job.
func RegisterAuditPurgeJob(scheduler *Scheduler, purger AuditPurger, retentionDays int, logger *zap.Logger) error {
	if retentionDays <= 0 {
		return nil
	}

	job := NewAuditPurgeJob(purger, retentionDays, logger, DefaultJobTimeout)
	return scheduler.AddJob(AuditPurgeJobName, "@daily", job.Run)
}
