package storage

import (
	"context"
	"time"

	uploadapp "photopick/internal/application/upload"
)

// timeoutStore bounds every storage call so a hung endpoint cannot hold a
// request forever.
type timeoutStore struct {
	next    uploadapp.ObjectStore
	timeout time.Duration
}

func (s *timeoutStore) Put(ctx context.Context, key string, body []byte, contentType string) (uploadapp.StorageRef, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.next.Put(ctx, key, body, contentType)
}

func (s *timeoutStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.next.Delete(ctx, key)
}

func (s *timeoutStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
