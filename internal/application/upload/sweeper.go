package upload

import (
	"context"
	"time"

	domain "photopick/internal/domain/upload"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/logger"
)

const DefaultSweepBatch = 100

type SweepReport struct {
	Scanned  int
	Resolved int
	Failed   int
}

// OrphanSweeper retries deletion of objects whose upload row is gone.
type OrphanSweeper struct {
	orphans domain.OrphanRepository
	store   ObjectStore
	clock   biztime.Clock
	timeout time.Duration
	logger  logger.Interface
}

func NewOrphanSweeper(
	orphans domain.OrphanRepository,
	store ObjectStore,
	clock biztime.Clock,
	timeout time.Duration,
	logger logger.Interface,
) *OrphanSweeper {
	if clock == nil {
		clock = biztime.SystemClock
	}
	if timeout <= 0 {
		timeout = defaultCleanupTimeout
	}
	return &OrphanSweeper{
		orphans: orphans,
		store:   store,
		clock:   clock,
		timeout: timeout,
		logger:  logger,
	}
}

// Sweep processes up to batch unresolved orphans, least recently tried first.
// A failed delete bumps the orphan's attempt count and is left for the next run.
func (s *OrphanSweeper) Sweep(ctx context.Context, batch int) (*SweepReport, error) {
	if batch <= 0 {
		batch = DefaultSweepBatch
	}

	orphans, err := s.orphans.ListUnresolved(ctx, batch)
	if err != nil {
		s.logger.Errorw("failed to list orphaned objects", "error", err)
		return nil, err
	}

	report := &SweepReport{Scanned: len(orphans)}
	for _, orphan := range orphans {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		deleteCtx, cancel := context.WithTimeout(ctx, s.timeout)
		delErr := s.store.Delete(deleteCtx, orphan.StorageKey())
		cancel()

		if delErr != nil {
			orphan.RecordFailure(delErr, s.clock.Now())
			report.Failed++
			s.logger.Warnw("orphaned object delete failed",
				"key", orphan.StorageKey(),
				"attempts", orphan.Attempts(),
				"error", delErr,
			)
		} else {
			orphan.Resolve(s.clock.Now())
			report.Resolved++
		}

		if err := s.orphans.Update(ctx, orphan); err != nil {
			s.logger.Errorw("failed to update orphaned object", "key", orphan.StorageKey(), "error", err)
			return report, err
		}
	}

	if report.Scanned > 0 {
		s.logger.Infow("orphan sweep finished",
			"scanned", report.Scanned,
			"resolved", report.Resolved,
			"failed", report.Failed,
		)
	}
	return report, nil
}
