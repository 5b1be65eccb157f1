package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/domain/quota"
	"photopick/internal/infrastructure/persistence/models"
	"photopick/internal/infrastructure/persistence/testutil"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
)

func TestQuotaLedgerRepository(t *testing.T) {
	gdb := testutil.NewSQLiteDB(t)
	repo := NewQuotaLedgerRepository(gdb, time.Second, logger.NewNopLogger())
	tm := db.NewTransactionManager(gdb)
	ctx := context.Background()
	now := time.Now().UTC()

	ledger, err := quota.NewLedger("owner-1", quota.PlanFree, now)
	require.NoError(t, err)

	t.Run("create and read back", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, ledger))
		assert.NotZero(t, ledger.ID())

		got, err := repo.GetByOwnerID(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, quota.PlanFree, got.Plan())
		assert.Equal(t, quota.StatusActive, got.Status())
		assert.Equal(t, 0, got.UsedCount())
		assert.Equal(t, 1, got.Version())
	})

	t.Run("duplicate owner", func(t *testing.T) {
		again, err := quota.NewLedger("owner-1", quota.PlanPro, now)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, again), quota.ErrLedgerExists)
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := repo.GetByOwnerID(ctx, "nobody")
		assert.ErrorIs(t, err, quota.ErrLedgerNotFound)
	})

	t.Run("lock requires transaction", func(t *testing.T) {
		_, err := repo.LockByOwnerID(ctx, "owner-1")
		assert.ErrorIs(t, err, db.ErrNoTransaction)
	})

	t.Run("update under lock", func(t *testing.T) {
		err := tm.RunInTransaction(ctx, func(txCtx context.Context) error {
			locked, err := repo.LockByOwnerID(txCtx, "owner-1")
			if err != nil {
				return err
			}
			if _, err := locked.Reserve(3, now); err != nil {
				return err
			}
			return repo.Update(txCtx, locked)
		})
		require.NoError(t, err)

		got, err := repo.GetByOwnerID(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.UsedCount())
		assert.Equal(t, 2, got.Version())
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := repo.GetByOwnerID(ctx, "owner-1")
		require.NoError(t, err)

		require.NoError(t, tm.RunInTransaction(ctx, func(txCtx context.Context) error {
			fresh, err := repo.LockByOwnerID(txCtx, "owner-1")
			if err != nil {
				return err
			}
			_, _ = fresh.Release(1, now)
			return repo.Update(txCtx, fresh)
		}))

		err = tm.RunInTransaction(ctx, func(txCtx context.Context) error {
			_, _ = stale.Reserve(1, now)
			return repo.Update(txCtx, stale)
		})
		assert.ErrorIs(t, err, quota.ErrConcurrentModification)

		got, err := repo.GetByOwnerID(ctx, "owner-1")
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsedCount())
	})

	t.Run("negative counter is corruption", func(t *testing.T) {
		require.NoError(t, gdb.Create(&models.QuotaLedgerModel{
			OwnerID: "broken", Plan: "FREE", Status: "active", UsedCount: -2, Version: 1,
		}).Error)

		_, err := repo.GetByOwnerID(ctx, "broken")
		assert.ErrorIs(t, err, quota.ErrLedgerCorrupted)
	})

	t.Run("list owners", func(t *testing.T) {
		owners, err := repo.ListOwnerIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"broken", "owner-1"}, owners)
	})
}
