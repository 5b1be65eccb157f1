package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photopick/internal/domain/quota"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
	"photopick/internal/shared/ownerlock"
)

// SectionFunc runs inside an owner's critical section. txCtx carries the
// transaction; ledger is the row read under lock. Returning an error rolls
// the transaction back. The func may run again when the section is retried.
type SectionFunc func(txCtx context.Context, ledger *quota.Ledger) error

// Config tunes the owner section.
type Config struct {
	// LockWait bounds the wait for the in-process owner slot.
	LockWait time.Duration
	Retry    db.RetryPolicy
}

// Service owns every write to quota ledgers.
type Service struct {
	repo       quota.LedgerRepository
	counter    UploadCounter
	txMgr      *db.TransactionManager
	planSource PlanSource
	locks      *ownerlock.Locker
	cache      StatusCache
	clock      biztime.Clock
	retry      db.RetryPolicy
	logger     logger.Interface
}

// Option customizes a Service.
type Option func(*Service)

// WithStatusCache serves Status through cache.
func WithStatusCache(cache StatusCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithClock replaces the wall clock used for billing period checks.
func WithClock(clock biztime.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService creates a ledger service.
func NewService(
	repo quota.LedgerRepository,
	counter UploadCounter,
	txMgr *db.TransactionManager,
	planSource PlanSource,
	cfg Config,
	log logger.Interface,
	opts ...Option,
) *Service {
	s := &Service{
		repo:       repo,
		counter:    counter,
		txMgr:      txMgr,
		planSource: planSource,
		locks:      ownerlock.New(cfg.LockWait),
		clock:      biztime.SystemClock,
		retry:      cfg.Retry,
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock, shared with callers that timestamp records
// written in the same section.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Provision creates the ledger when an account is created. An empty plan
// asks the PlanSource. A second call for the same owner fails with
// quota.ErrLedgerExists.
func (s *Service) Provision(ctx context.Context, ownerID string, plan quota.Plan) (*quota.Ledger, error) {
	if ownerID == "" {
		return nil, quota.ErrInvalidOwner
	}

	if plan == "" {
		p, err := s.planSource.CurrentPlan(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", quota.ErrPlanSourceUnavailable, err)
		}
		plan = p
	}

	ledger, err := quota.NewLedger(ownerID, plan, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, ledger); err != nil {
		if !errors.Is(err, quota.ErrLedgerExists) {
			s.logger.Errorw("failed to provision ledger", "owner_id", ownerID, "error", err)
		}
		return nil, err
	}

	s.invalidate(ctx, ownerID, ledger.Version())
	s.logger.Infow("ledger provisioned",
		"owner_id", ownerID,
		"plan", ledger.Plan(),
		"status", ledger.Status(),
	)
	return ledger, nil
}

// WithOwnerSection runs fn in ownerID's exclusive section: in-process owner
// slot, then a transaction, then the ledger row lock. All three are released
// on every exit path. Busy owners, serialization failures and lock-wait
// timeouts are retried with backoff; when retries run out the error wraps
// quota.ErrConflictRetryExhausted.
//
// When ctx already carries a transaction, fn joins it under the row lock
// without retries; the caller owns the transaction outcome.
func (s *Service) WithOwnerSection(ctx context.Context, ownerID string, fn SectionFunc) error {
	return s.section(ctx, ownerID, true, fn)
}

func (s *Service) section(ctx context.Context, ownerID string, writes bool, fn SectionFunc) error {
	if ownerID == "" {
		return quota.ErrInvalidOwner
	}

	if db.HasTx(ctx) {
		ledger, err := s.LockForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		return fn(ctx, ledger)
	}

	var version int
	err := db.Retry(ctx, s.retry, isTransient, func(attempt int) error {
		if attempt > 1 {
			s.logger.Debugw("retrying owner section", "owner_id", ownerID, "attempt", attempt)
		}
		return s.runSection(ctx, ownerID, func(txCtx context.Context, ledger *quota.Ledger) error {
			err := fn(txCtx, ledger)
			version = ledger.Version()
			return err
		})
	})
	if err != nil {
		if isTransient(err) {
			s.logger.Warnw("owner section retries exhausted", "owner_id", ownerID, "error", err)
			return fmt.Errorf("%w: %w", quota.ErrConflictRetryExhausted, err)
		}
		return err
	}

	if writes {
		s.invalidate(ctx, ownerID, version)
	}
	return nil
}

func (s *Service) runSection(ctx context.Context, ownerID string, fn SectionFunc) error {
	release, err := s.locks.Acquire(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ownerlock.ErrTimeout) {
			return fmt.Errorf("%w: owner %s", quota.ErrOwnerBusy, ownerID)
		}
		return err
	}
	defer release()

	return s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		ledger, err := s.LockForUpdate(txCtx, ownerID)
		if err != nil {
			return err
		}
		return fn(txCtx, ledger)
	})
}

// LockForUpdate reads the owner's ledger under an exclusive row lock held
// until the transaction in ctx ends. A missing or corrupted ledger is an
// invariant violation and is never retried.
func (s *Service) LockForUpdate(ctx context.Context, ownerID string) (*quota.Ledger, error) {
	ledger, err := s.repo.LockByOwnerID(ctx, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrLedgerNotFound):
			s.logger.Errorw("invariant violation: no ledger for owner", "owner_id", ownerID)
		case errors.Is(err, quota.ErrLedgerCorrupted):
			s.logger.Errorw("invariant violation: corrupted ledger", "owner_id", ownerID, "error", err)
		}
		return nil, err
	}
	return ledger, nil
}

// ReserveLocked reserves amount on a ledger obtained from LockForUpdate. A
// rejection is returned as a result and leaves the ledger unchanged.
func (s *Service) ReserveLocked(txCtx context.Context, ledger *quota.Ledger, amount int) (*quota.Reservation, error) {
	rejection, err := ledger.Reserve(amount, s.clock.Now())
	if err != nil {
		return nil, err
	}

	reservation := &quota.Reservation{
		OwnerID:   ledger.OwnerID(),
		Amount:    amount,
		Used:      ledger.UsedCount(),
		Limit:     ledger.Limit(),
		Rejection: rejection,
	}
	if rejection != nil {
		s.logger.Infow("reservation rejected",
			"owner_id", ledger.OwnerID(),
			"reason", rejection.Reason,
			"used", rejection.Used,
			"limit", rejection.Limit,
		)
		return reservation, nil
	}

	if err := s.repo.Update(txCtx, ledger); err != nil {
		return nil, err
	}
	return reservation, nil
}

// ReleaseLocked gives amount back on a ledger obtained from LockForUpdate.
// The counter saturates at zero; clamping is logged as drift.
func (s *Service) ReleaseLocked(txCtx context.Context, ledger *quota.Ledger, amount int) error {
	before := ledger.UsedCount()
	clamped, err := ledger.Release(amount, s.clock.Now())
	if err != nil {
		return err
	}
	if clamped > 0 {
		s.logger.Warnw("ledger drift detected",
			"owner_id", ledger.OwnerID(),
			"used_count", before,
			"release", amount,
			"clamped", clamped,
		)
	}
	return s.repo.Update(txCtx, ledger)
}

// Reserve takes amount of capacity in its own owner section, or under the
// transaction already carried by ctx.
func (s *Service) Reserve(ctx context.Context, ownerID string, amount int) (*quota.Reservation, error) {
	if amount < 1 {
		return nil, quota.ErrInvalidAmount
	}

	var reservation *quota.Reservation
	err := s.WithOwnerSection(ctx, ownerID, func(txCtx context.Context, ledger *quota.Ledger) error {
		r, err := s.ReserveLocked(txCtx, ledger, amount)
		if err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Release gives amount back under the same discipline as Reserve.
func (s *Service) Release(ctx context.Context, ownerID string, amount int) error {
	if amount < 1 {
		return quota.ErrInvalidAmount
	}
	return s.WithOwnerSection(ctx, ownerID, func(txCtx context.Context, ledger *quota.Ledger) error {
		return s.ReleaseLocked(txCtx, ledger, amount)
	})
}

// CheckCapacity evaluates amount under the owner section without reserving.
// It lets callers refuse work before doing anything with side effects; the
// decision is final only once a later section reserves.
func (s *Service) CheckCapacity(ctx context.Context, ownerID string, amount int) (*quota.Rejection, error) {
	if amount < 1 {
		return nil, quota.ErrInvalidAmount
	}

	var rejection *quota.Rejection
	err := s.section(ctx, ownerID, false, func(_ context.Context, ledger *quota.Ledger) error {
		r, err := ledger.Check(amount, s.clock.Now())
		if err != nil {
			return err
		}
		rejection = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejection, nil
}

// ChangePlan applies a billing update in the owner section. It takes effect
// for the next reservation; the counter is never touched.
func (s *Service) ChangePlan(ctx context.Context, ownerID string, change quota.PlanChange) (*quota.Ledger, error) {
	if change.IsEmpty() {
		return nil, quota.ErrEmptyPlanChange
	}
	return s.applyPlanChange(ctx, ownerID, func(*quota.Ledger) quota.PlanChange { return change })
}

// SyncPlan pulls the owner's plan from the PlanSource and applies it. An
// upgrade of an active ledger with no current period lands as incomplete.
func (s *Service) SyncPlan(ctx context.Context, ownerID string) (*quota.Ledger, error) {
	plan, err := s.planSource.CurrentPlan(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", quota.ErrPlanSourceUnavailable, err)
	}
	return s.applyPlanChange(ctx, ownerID, func(ledger *quota.Ledger) quota.PlanChange {
		return ledger.SyncChange(plan, s.clock.Now())
	})
}

// applyPlanChange builds the change from the locked ledger so it sees the
// state it will be applied to.
func (s *Service) applyPlanChange(ctx context.Context, ownerID string, build func(*quota.Ledger) quota.PlanChange) (*quota.Ledger, error) {
	var result *quota.Ledger
	err := s.WithOwnerSection(ctx, ownerID, func(txCtx context.Context, ledger *quota.Ledger) error {
		fromPlan, fromStatus := ledger.Plan(), ledger.Status()
		if err := ledger.ChangePlan(build(ledger), s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, ledger); err != nil {
			return err
		}

		s.logger.Infow("ledger plan changed",
			"owner_id", ownerID,
			"from_plan", fromPlan,
			"to_plan", ledger.Plan(),
			"from_status", fromStatus,
			"to_status", ledger.Status(),
		)
		if ledger.UsedCount() > ledger.Limit() {
			s.logger.Warnw("plan limit below current usage",
				"owner_id", ownerID,
				"used_count", ledger.UsedCount(),
				"limit", ledger.Limit(),
			)
		}
		result = ledger
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Status returns an unlocked snapshot for display. It may lag behind
// in-flight sections and must not gate writes. A snapshot read before a
// concurrent commit is not cached over that commit's invalidation.
func (s *Service) Status(ctx context.Context, ownerID string) (*quota.LedgerStatus, error) {
	if ownerID == "" {
		return nil, quota.ErrInvalidOwner
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ownerID)
		if err != nil {
			s.logger.Warnw("ledger status cache read failed", "owner_id", ownerID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	ledger, err := s.repo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	status := ledger.Snapshot(s.clock.Now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, status); err != nil {
			s.logger.Warnw("ledger status cache write failed", "owner_id", ownerID, "error", err)
		}
	}
	return status, nil
}

// Reconcile compares the counter with the surviving records inside the owner
// section. It only reports; repairing drift is an operator decision.
func (s *Service) Reconcile(ctx context.Context, ownerID string) (*quota.Drift, error) {
	var drift *quota.Drift
	err := s.section(ctx, ownerID, false, func(txCtx context.Context, ledger *quota.Ledger) error {
		actual, err := s.counter.CountByOwner(txCtx, ownerID)
		if err != nil {
			return err
		}
		drift = &quota.Drift{OwnerID: ownerID, UsedCount: ledger.UsedCount(), Actual: actual}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !drift.InSync() {
		s.logger.Warnw("ledger drift detected",
			"owner_id", ownerID,
			"used_count", drift.UsedCount,
			"records", drift.Actual,
			"delta", drift.Delta(),
		)
	}
	return drift, nil
}

// ReconcileAll runs Reconcile for every provisioned owner and returns the
// owners that are out of sync.
func (s *Service) ReconcileAll(ctx context.Context) ([]*quota.Drift, error) {
	ownerIDs, err := s.repo.ListOwnerIDs(ctx)
	if err != nil {
		return nil, err
	}

	var drifted []*quota.Drift
	for _, ownerID := range ownerIDs {
		drift, err := s.Reconcile(ctx, ownerID)
		if err != nil {
			if errors.Is(err, quota.ErrLedgerCorrupted) {
				continue
			}
			return drifted, err
		}
		if !drift.InSync() {
			drifted = append(drifted, drift)
		}
	}
	return drifted, nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string, version int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), ownerID, version); err != nil {
		s.logger.Warnw("ledger status cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}

func isTransient(err error) bool {
	return quota.IsTransient(err) || db.IsRetryable(err)
}
