package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uploadapp "photopick/internal/application/upload"
	"photopick/internal/shared/config"
	"photopick/internal/shared/logger"
)

func TestMemoryObjectStore(t *testing.T) {
	s := NewMemoryObjectStore()
	ctx := context.Background()

	ref, err := s.Put(ctx, "u/o/upl_1/a.jpg", []byte("abc"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, int64(3), ref.Size)
	assert.NotEmpty(t, ref.ETag)
	assert.True(t, s.Has("u/o/upl_1/a.jpg"))

	require.NoError(t, s.Delete(ctx, "u/o/upl_1/a.jpg"))
	require.NoError(t, s.Delete(ctx, "u/o/upl_1/a.jpg"))
	assert.Equal(t, 0, s.Len())

	_, err = s.Put(ctx, "", []byte("x"), "")
	assert.Error(t, err)
}

func TestMemoryObjectStore_InjectedFailures(t *testing.T) {
	s := NewMemoryObjectStore()
	ctx := context.Background()
	down := errors.New("storage down")

	s.FailPuts(down)
	_, err := s.Put(ctx, "k", []byte("x"), "")
	assert.ErrorIs(t, err, down)
	assert.Equal(t, 0, s.Len())

	s.FailPuts(nil)
	_, err = s.Put(ctx, "k", []byte("x"), "")
	require.NoError(t, err)

	s.FailDeletes(down)
	assert.ErrorIs(t, s.Delete(ctx, "k"), down)
	assert.True(t, s.Has("k"))
}

type slowStore struct{}

func (slowStore) Put(ctx context.Context, key string, body []byte, contentType string) (uploadapp.StorageRef, error) {
	<-ctx.Done()
	return uploadapp.StorageRef{}, ctx.Err()
}

func (slowStore) Delete(ctx context.Context, key string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTimeoutStore(t *testing.T) {
	s := &timeoutStore{next: slowStore{}, timeout: 20 * time.Millisecond}

	_, err := s.Put(context.Background(), "k", nil, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, s.Delete(context.Background(), "k"), context.DeadlineExceeded)
}

func TestNewS3ObjectStore_Validation(t *testing.T) {
	_, err := NewS3ObjectStore(context.Background(), nil, logger.NewNopLogger())
	assert.Error(t, err)

	_, err = NewS3ObjectStore(context.Background(), &config.StorageConfig{}, logger.NewNopLogger())
	assert.Error(t, err)

	store, err := NewS3ObjectStore(context.Background(), &config.StorageConfig{
		Driver:       "s3",
		Endpoint:     "localhost:9000",
		Bucket:       "photos",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "photos", store.Bucket())
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("", false)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)

	got, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.StorageConfig{Driver: "ftp"}, logger.NewNopLogger())
	assert.Error(t, err)

	store, err := New(context.Background(), &config.StorageConfig{Driver: "memory"}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryObjectStore{}, store)
}
