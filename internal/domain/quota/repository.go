package quota

import "context"

// LedgerRepository persists ledgers. Methods that mutate or lock require the
// transaction carried by ctx.
type LedgerRepository interface {
	Create(ctx context.Context, ledger *Ledger) error
	GetByOwnerID(ctx context.Context, ownerID string) (*Ledger, error)
	// LockByOwnerID reads the row with an exclusive row lock held until the
	// surrounding transaction ends.
	LockByOwnerID(ctx context.Context, ownerID string) (*Ledger, error)
	// Update writes pending changes guarded by PersistedVersion and returns
	// ErrConcurrentModification when the row moved underneath.
	Update(ctx context.Context, ledger *Ledger) error
	ListOwnerIDs(ctx context.Context) ([]string, error)
}
