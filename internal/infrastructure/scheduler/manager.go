// Package scheduler runs periodic maintenance jobs on gocron v2.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/cache"
	"github.com/hrshiti/inplay-sub000/internal/shared/goroutine"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// BatchJob processes one cycle and returns the number of items handled.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// JobLock provides cross-instance exclusion for a named job.
type JobLock interface {
	Acquire(ctx context.Context, name string) (func(context.Context) error, error)
}

const LicenseSweepJobName = "license-sweep"

// SchedulerManager owns the gocron scheduler and its registered jobs.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface
	lock      JobLock

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a manager. lock may be nil for single-instance deployments.
func NewSchedulerManager(log logger.Interface, lock JobLock) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
		lock:      lock,
	}, nil
}

// RegisterLicenseSweepJob runs the expiry sweep every interval, starting immediately.
// Overlapping runs on this instance are rescheduled, not queued.
func (m *SchedulerManager) RegisterLicenseSweepJob(job BatchJob, interval, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			goroutine.Run(m.logger, LicenseSweepJobName, func() {
				m.RunLocked(ctx, LicenseSweepJobName, job)
			})
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("license", "expire"),
		gocron.WithName(LicenseSweepJobName),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered license sweep job", "interval", interval.String())
	return nil
}

// RunLocked executes job once under the job lock when one is configured.
// It returns the processed count, or zero when another instance holds the lock.
func (m *SchedulerManager) RunLocked(ctx context.Context, name string, job BatchJob) int {
	if m.lock != nil {
		release, err := m.lock.Acquire(ctx, name)
		if errors.Is(err, cache.ErrLockHeld) {
			m.logger.Debugw("job skipped, lock held elsewhere", "job", name)
			return 0
		}
		if err != nil {
			m.logger.Errorw("failed to acquire job lock", "job", name, "error", err)
			return 0
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warnw("failed to release job lock", "job", name, "error", err)
			}
		}()
	}

	start := time.Now()
	count, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("scheduled job failed",
			"job", name,
			"processed", count,
			"error", err,
			"duration", time.Since(start),
		)
		return count
	}
	if count > 0 {
		m.logger.Infow("scheduled job completed",
			"job", name,
			"processed", count,
			"duration", time.Since(start),
		)
	}
	return count
}

// Start begins executing registered jobs. Calling it twice is a no-op.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down and waits for running jobs to finish.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")
	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
