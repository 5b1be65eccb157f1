// Package scheduler runs background maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"photopick/internal/application/upload"
	"photopick/internal/domain/quota"
	"photopick/internal/shared/logger"
)

// OrphanSweeper retries deletion of orphaned objects.
type OrphanSweeper interface {
	Sweep(ctx context.Context, batch int) (*upload.SweepReport, error)
}

// DriftReporter compares every ledger with its surviving upload records.
type DriftReporter interface {
	ReconcileAll(ctx context.Context) ([]*quota.Drift, error)
}

// SchedulerManager owns the gocron scheduler and its jobs.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterOrphanSweepJob sweeps up to batch orphans every interval, starting
// immediately. Runs never overlap.
func (m *SchedulerManager) RegisterOrphanSweepJob(sweeper OrphanSweeper, interval time.Duration, batch int) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.sweepOrphans(ctx, sweeper, batch)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("storage", "orphan-sweep"),
		gocron.WithName("orphan-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered orphan sweep job", "interval", interval, "batch", batch)
	return nil
}

// RegisterDriftReportJob reconciles all ledgers every interval. It only
// reports; the counters are left alone.
func (m *SchedulerManager) RegisterDriftReportJob(reporter DriftReporter, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.reportDrift(ctx, reporter)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("quota", "drift-report"),
		gocron.WithName("ledger-drift-report"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered drift report job", "interval", interval)
	return nil
}

func (m *SchedulerManager) sweepOrphans(ctx context.Context, sweeper OrphanSweeper, batch int) {
	startTime := time.Now()

	report, err := sweeper.Sweep(ctx, batch)
	if err != nil {
		// graceful shutdown
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("failed to sweep orphaned objects", "error", err, "duration", time.Since(startTime))
		return
	}

	if report.Scanned > 0 {
		m.logger.Infow("orphaned objects swept",
			"scanned", report.Scanned,
			"resolved", report.Resolved,
			"failed", report.Failed,
			"duration", time.Since(startTime),
		)
	}
}

func (m *SchedulerManager) reportDrift(ctx context.Context, reporter DriftReporter) {
	drifted, err := reporter.ReconcileAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("failed to reconcile ledgers", "error", err)
		return
	}

	if len(drifted) > 0 {
		m.logger.Warnw("ledgers out of sync with upload records", "owners", len(drifted))
	}
}

// Start starts the scheduler and all registered jobs.
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

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
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

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
