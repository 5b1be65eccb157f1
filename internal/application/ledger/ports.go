// Package ledger runs the per-owner quota ledger: provisioning, the owner
// critical section, reservations, releases, plan changes and status reads.
package ledger

import (
	"context"

	"photopick/internal/domain/quota"
)

// PlanSource answers which plan the billing side has for an owner.
type PlanSource interface {
	CurrentPlan(ctx context.Context, ownerID string) (quota.Plan, error)
}

// StatusCache holds display snapshots. Get returns nil, nil on a miss.
// Invalidate drops the snapshot and remembers version as a floor: a later Set
// of a snapshot read before that version is ignored.
type StatusCache interface {
	Get(ctx context.Context, ownerID string) (*quota.LedgerStatus, error)
	Set(ctx context.Context, status *quota.LedgerStatus) error
	Invalidate(ctx context.Context, ownerID string, version int) error
}

// UploadCounter counts the records the ledger is supposed to mirror.
type UploadCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}
