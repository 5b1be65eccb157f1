package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sync"

	uploadapp "photopick/internal/application/upload"
)

var _ uploadapp.ObjectStore = (*MemoryObjectStore)(nil)

type memoryObject struct {
	body        []byte
	contentType string
}

// MemoryObjectStore keeps objects in process memory. It backs local
// development and tests; failures can be injected to exercise cleanup paths.
type MemoryObjectStore struct {
	mu        sync.RWMutex
	objects   map[string]memoryObject
	putErr    error
	deleteErr error
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) (uploadapp.StorageRef, error) {
	if err := ctx.Err(); err != nil {
		return uploadapp.StorageRef{}, err
	}
	if key == "" {
		return uploadapp.StorageRef{}, errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return uploadapp.StorageRef{}, s.putErr
	}

	stored := make([]byte, len(body))
	copy(stored, body)
	s.objects[key] = memoryObject{body: stored, contentType: contentType}

	sum := md5.Sum(stored)
	return uploadapp.StorageRef{Key: key, Size: int64(len(stored)), ETag: hex.EncodeToString(sum[:])}, nil
}

func (s *MemoryObjectStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

// FailPuts makes every following Put return err; nil restores normal behavior.
func (s *MemoryObjectStore) FailPuts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putErr = err
}

// FailDeletes makes every following Delete return err; nil restores normal behavior.
func (s *MemoryObjectStore) FailDeletes(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

func (s *MemoryObjectStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

func (s *MemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
