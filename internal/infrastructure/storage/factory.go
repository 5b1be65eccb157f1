package storage

import (
	"context"
	"fmt"

	uploadapp "photopick/internal/application/upload"
	"photopick/internal/shared/config"
	"photopick/internal/shared/logger"
)

// New builds the ObjectStore selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StorageConfig, log logger.Interface) (uploadapp.ObjectStore, error) {
	switch cfg.Driver {
	case "memory":
		log.Warnw("using in-memory object storage; uploaded bytes are lost on restart")
		return NewMemoryObjectStore(), nil
	case "s3", "":
		store, err := NewS3ObjectStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return &timeoutStore{next: store, timeout: cfg.Timeout}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
