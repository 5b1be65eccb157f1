package upload

import "context"

// StorageRef identifies bytes written by an ObjectStore.
type StorageRef struct {
	Key  string
	Size int64
	ETag string
}

// ObjectStore holds upload bytes. Put must be durable when it returns nil;
// Delete of a missing key succeeds.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (StorageRef, error)
	Delete(ctx context.Context, key string) error
}
