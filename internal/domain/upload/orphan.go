package upload

import "time"

// OrphanReason records how an object lost its metadata row.
type OrphanReason string

const (
	// OrphanDeleteFailed: the row was deleted but the object delete failed.
	OrphanDeleteFailed OrphanReason = "delete_failed"
	// OrphanCompensationFailed: a create was abandoned and its object could not be removed.
	OrphanCompensationFailed OrphanReason = "compensation_failed"
)

// OrphanedObject is a stored object no upload row points to.
type OrphanedObject struct {
	id         uint
	storageKey string
	reason     OrphanReason
	attempts   int
	lastError  string
	resolvedAt *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewOrphanedObject records a failed delete of storageKey.
func NewOrphanedObject(storageKey string, reason OrphanReason, cause error, now time.Time) (*OrphanedObject, error) {
	if storageKey == "" {
		return nil, ErrInvalidOrphanKey
	}
	o := &OrphanedObject{
		storageKey: storageKey,
		reason:     reason,
		attempts:   1,
		createdAt:  now,
		updatedAt:  now,
	}
	if cause != nil {
		o.lastError = cause.Error()
	}
	return o, nil
}

// ReconstructOrphanedObject rebuilds an orphan from persistence.
func ReconstructOrphanedObject(
	id uint,
	storageKey string,
	reason OrphanReason,
	attempts int,
	lastError string,
	resolvedAt *time.Time,
	createdAt, updatedAt time.Time,
) *OrphanedObject {
	return &OrphanedObject{
		id:         id,
		storageKey: storageKey,
		reason:     reason,
		attempts:   attempts,
		lastError:  lastError,
		resolvedAt: resolvedAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (o *OrphanedObject) ID() uint               { return o.id }
func (o *OrphanedObject) StorageKey() string     { return o.storageKey }
func (o *OrphanedObject) Reason() OrphanReason   { return o.reason }
func (o *OrphanedObject) Attempts() int          { return o.attempts }
func (o *OrphanedObject) LastError() string      { return o.lastError }
func (o *OrphanedObject) ResolvedAt() *time.Time { return o.resolvedAt }
func (o *OrphanedObject) CreatedAt() time.Time   { return o.createdAt }
func (o *OrphanedObject) UpdatedAt() time.Time   { return o.updatedAt }

func (o *OrphanedObject) SetID(id uint) {
	o.id = id
}

func (o *OrphanedObject) IsResolved() bool {
	return o.resolvedAt != nil
}

// RecordFailure counts another failed delete attempt.
func (o *OrphanedObject) RecordFailure(cause error, now time.Time) {
	o.attempts++
	if cause != nil {
		o.lastError = cause.Error()
	}
	o.updatedAt = now
}

// Resolve marks the object as gone from storage.
func (o *OrphanedObject) Resolve(now time.Time) {
	if o.resolvedAt != nil {
		return
	}
	o.resolvedAt = &now
	o.lastError = ""
	o.updatedAt = now
}
