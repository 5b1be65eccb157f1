// Package quota models the per-owner upload ledger: the plan catalog, the
// subscription status and the authoritative used counter.
package quota

import (
	"fmt"
	"strings"
	"time"
)

// Ledger is the aggregate root holding an owner's plan and usage. Mutations
// are only valid on a snapshot read under the owner's exclusive section.
type Ledger struct {
	id               uint
	ownerID          string
	plan             Plan
	status           Status
	usedCount        int
	currentPeriodEnd *time.Time
	version          int
	dirty            bool
	createdAt        time.Time
	updatedAt        time.Time
}

// NewLedger creates the ledger for a freshly provisioned owner. Free plans
// start active; paid plans start incomplete until a billing period is set.
func NewLedger(ownerID string, plan Plan, now time.Time) (*Ledger, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrInvalidOwner
	}
	if _, err := ParsePlan(string(plan)); err != nil {
		return nil, err
	}

	status := StatusActive
	if plan.IsPaid() {
		status = StatusIncomplete
	}

	return &Ledger{
		ownerID:   ownerID,
		plan:      plan,
		status:    status,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructLedger rebuilds a ledger from persistence. A negative counter is
// reported as ErrLedgerCorrupted rather than clamped.
func ReconstructLedger(
	id uint,
	ownerID string,
	plan Plan,
	status Status,
	usedCount int,
	currentPeriodEnd *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Ledger, error) {
	if ownerID == "" {
		return nil, ErrInvalidOwner
	}
	if _, err := ParsePlan(string(plan)); err != nil {
		return nil, fmt.Errorf("%w: owner %s: %v", ErrLedgerCorrupted, ownerID, err)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: owner %s: status %q", ErrLedgerCorrupted, ownerID, status)
	}
	if usedCount < 0 {
		return nil, fmt.Errorf("%w: owner %s: used_count=%d", ErrLedgerCorrupted, ownerID, usedCount)
	}

	return &Ledger{
		id:               id,
		ownerID:          ownerID,
		plan:             plan,
		status:           status,
		usedCount:        usedCount,
		currentPeriodEnd: currentPeriodEnd,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (l *Ledger) ID() uint                     { return l.id }
func (l *Ledger) OwnerID() string              { return l.ownerID }
func (l *Ledger) Plan() Plan                   { return l.plan }
func (l *Ledger) Status() Status               { return l.status }
func (l *Ledger) UsedCount() int               { return l.usedCount }
func (l *Ledger) CurrentPeriodEnd() *time.Time { return l.currentPeriodEnd }
func (l *Ledger) Version() int                 { return l.version }
func (l *Ledger) CreatedAt() time.Time         { return l.createdAt }
func (l *Ledger) UpdatedAt() time.Time         { return l.updatedAt }

// SetID is called by the repository after insert.
func (l *Ledger) SetID(id uint) {
	l.id = id
}

// Limit is the plan's inclusive capacity.
func (l *Ledger) Limit() int {
	return LimitFor(l.plan)
}

// Remaining never goes below zero, also after a downgrade below usage.
func (l *Ledger) Remaining() int {
	if r := l.Limit() - l.usedCount; r > 0 {
		return r
	}
	return 0
}

// AcceptsUploads reports whether the subscription may take new uploads at now.
// Free plans only need to be active; paid plans also need a billing period
// that has not ended.
func (l *Ledger) AcceptsUploads(now time.Time) bool {
	if l.status != StatusActive {
		return false
	}
	if l.plan.IsFree() {
		return true
	}
	return l.currentPeriodEnd != nil && !l.currentPeriodEnd.Before(now)
}

// Check evaluates amount against status and capacity without mutating.
func (l *Ledger) Check(amount int, now time.Time) (*Rejection, error) {
	if amount < 1 {
		return nil, ErrInvalidAmount
	}
	if !l.AcceptsUploads(now) {
		return &Rejection{Reason: ReasonSubscriptionInactive, Used: l.usedCount, Limit: l.Limit()}, nil
	}
	if l.usedCount+amount > l.Limit() {
		return &Rejection{Reason: ReasonQuotaExceeded, Used: l.usedCount, Limit: l.Limit()}, nil
	}
	return nil, nil
}

// Reserve adds amount to the counter when Check admits it. A rejection leaves
// the ledger untouched.
func (l *Ledger) Reserve(amount int, now time.Time) (*Rejection, error) {
	rejection, err := l.Check(amount, now)
	if err != nil || rejection != nil {
		return rejection, err
	}
	l.usedCount += amount
	l.touch(now)
	return nil, nil
}

// Release subtracts amount, saturating at zero. It returns the part of amount
// that could not be released; a non-zero value means the counter had drifted.
func (l *Ledger) Release(amount int, now time.Time) (int, error) {
	if amount < 1 {
		return 0, ErrInvalidAmount
	}
	clamped := 0
	if amount > l.usedCount {
		clamped = amount - l.usedCount
		amount = l.usedCount
	}
	if amount > 0 {
		l.usedCount -= amount
		l.touch(now)
	}
	return clamped, nil
}

// PlanChange describes a billing update. Nil fields are left unchanged;
// ClearPeriodEnd removes the period end explicitly.
type PlanChange struct {
	Plan             *Plan
	Status           *Status
	CurrentPeriodEnd *time.Time
	ClearPeriodEnd   bool
}

// IsEmpty reports whether the change would not touch anything.
func (c PlanChange) IsEmpty() bool {
	return c.Plan == nil && c.Status == nil && c.CurrentPeriodEnd == nil && !c.ClearPeriodEnd
}

// ChangePlan applies a billing update. An active paid plan must carry a
// period end in the future. Lowering the plan below current usage is allowed;
// Check keeps rejecting until usage drops under the new limit.
func (l *Ledger) ChangePlan(change PlanChange, now time.Time) error {
	plan, status, periodEnd := l.plan, l.status, l.currentPeriodEnd

	if change.Plan != nil {
		p, err := ParsePlan(string(*change.Plan))
		if err != nil {
			return err
		}
		plan = p
	}
	if change.Status != nil {
		s, err := ParseStatus(string(*change.Status))
		if err != nil {
			return err
		}
		status = s
	}
	if change.ClearPeriodEnd {
		periodEnd = nil
	}
	if change.CurrentPeriodEnd != nil {
		end := change.CurrentPeriodEnd.UTC()
		periodEnd = &end
	}

	if plan.IsPaid() && status == StatusActive {
		if periodEnd == nil || periodEnd.Before(now) {
			return ErrPeriodRequired
		}
	}

	if plan == l.plan && status == l.status && equalTimes(periodEnd, l.currentPeriodEnd) {
		return nil
	}

	l.plan, l.status, l.currentPeriodEnd = plan, status, periodEnd
	l.touch(now)
	return nil
}

// SyncChange builds the change that moves the ledger onto a plan reported by
// billing, which carries no period. An active ledger moving onto a paid plan
// without a current period becomes incomplete until billing reports one.
func (l *Ledger) SyncChange(plan Plan, now time.Time) PlanChange {
	change := PlanChange{Plan: &plan}
	if plan.IsPaid() && l.status == StatusActive {
		if l.currentPeriodEnd == nil || l.currentPeriodEnd.Before(now) {
			incomplete := StatusIncomplete
			change.Status = &incomplete
		}
	}
	return change
}

// IsDirty reports whether the ledger has changes not yet persisted.
func (l *Ledger) IsDirty() bool {
	return l.dirty
}

// PersistedVersion is the version the stored row carries, used as the
// optimistic guard when writing pending changes.
func (l *Ledger) PersistedVersion() int {
	if l.dirty {
		return l.version - 1
	}
	return l.version
}

// MarkPersisted is called by the repository once pending changes are stored.
func (l *Ledger) MarkPersisted() {
	l.dirty = false
}

// Snapshot returns the display view of the ledger at now.
func (l *Ledger) Snapshot(now time.Time) *LedgerStatus {
	return &LedgerStatus{
		OwnerID:          l.ownerID,
		Plan:             l.plan,
		Status:           l.status,
		UsedCount:        l.usedCount,
		Limit:            l.Limit(),
		Remaining:        l.Remaining(),
		AcceptsUploads:   l.AcceptsUploads(now),
		CurrentPeriodEnd: l.currentPeriodEnd,
		Version:          l.version,
	}
}

func (l *Ledger) touch(now time.Time) {
	if !l.dirty {
		l.version++
		l.dirty = true
	}
	l.updatedAt = now
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
