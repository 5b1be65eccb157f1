package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/domain/upload"
	"photopick/internal/infrastructure/persistence/testutil"
	"photopick/internal/shared/logger"
)

func TestUploadRepository(t *testing.T) {
	gdb := testutil.NewSQLiteDB(t)
	repo := NewUploadRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("upl_%02d", i)
		u, err := upload.NewUpload(id, "owner-1", upload.StorageKey("owner-1", id, "a.jpg"), 10, "image/jpeg", "a.jpg",
			map[string]any{"event": "wedding"}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, u))
	}
	other, err := upload.NewUpload("upl_other", "owner-2", "u/owner-2/upl_other/b.jpg", 10, "", "", nil, base)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))

	t.Run("get keeps metadata", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "upl_01")
		require.NoError(t, err)
		assert.Equal(t, "owner-1", got.OwnerID())
		assert.Equal(t, "wedding", got.Metadata()["event"])
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "upl_missing")
		assert.True(t, errors.Is(err, upload.ErrUploadNotFound))
	})

	t.Run("list newest first", func(t *testing.T) {
		items, total, err := repo.ListByOwner(ctx, "owner-1", 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, items, 2)
		assert.Equal(t, "upl_04", items[0].ID())
		assert.Equal(t, "upl_03", items[1].ID())
	})

	t.Run("delete owned only", func(t *testing.T) {
		deleted, err := repo.DeleteOwned(ctx, "upl_00", "owner-2")
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = repo.DeleteOwned(ctx, "upl_00", "owner-1")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.DeleteOwned(ctx, "upl_00", "owner-1")
		require.NoError(t, err)
		assert.False(t, deleted)

		count, err := repo.CountByOwner(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})
}

func TestOrphanedObjectRepository(t *testing.T) {
	gdb := testutil.NewSQLiteDB(t)
	repo := NewOrphanedObjectRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := upload.NewOrphanedObject("u/o/upl_1/a.jpg", upload.OrphanDeleteFailed, errors.New("timeout"), now)
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, first))

	again, err := upload.NewOrphanedObject("u/o/upl_1/a.jpg", upload.OrphanCompensationFailed, errors.New("503"), now.Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, again))

	pending, err := repo.ListUnresolved(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts())
	assert.Equal(t, "503", pending[0].LastError())

	pending[0].Resolve(now.Add(time.Minute))
	require.NoError(t, repo.Update(ctx, pending[0]))

	count, err := repo.CountUnresolved(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
