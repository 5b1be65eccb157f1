package upload

import "context"

// Repository persists upload rows. Writes join the transaction carried by ctx.
type Repository interface {
	Create(ctx context.Context, upload *Upload) error
	GetByID(ctx context.Context, id string) (*Upload, error)
	// DeleteOwned removes the row only when it still belongs to ownerID and
	// reports whether a row was removed.
	DeleteOwned(ctx context.Context, id, ownerID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*Upload, int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

// OrphanRepository tracks objects whose delete must be retried.
type OrphanRepository interface {
	// Record inserts the orphan or, when the key is already tracked, counts
	// another failure and reopens it.
	Record(ctx context.Context, orphan *OrphanedObject) error
	ListUnresolved(ctx context.Context, limit int) ([]*OrphanedObject, error)
	Update(ctx context.Context, orphan *OrphanedObject) error
	CountUnresolved(ctx context.Context) (int64, error)
}
