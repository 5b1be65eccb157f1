package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"photopick/internal/domain/quota"
	"photopick/internal/infrastructure/persistence/mappers"
	"photopick/internal/infrastructure/persistence/models"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
)

// QuotaLedgerRepositoryImpl stores ledgers with gorm. Row locks use
// SELECT ... FOR UPDATE; the lock wait is bounded per dialect.
type QuotaLedgerRepositoryImpl struct {
	db       *gorm.DB
	mapper   mappers.QuotaLedgerMapper
	lockWait time.Duration
	logger   logger.Interface
}

// NewQuotaLedgerRepository creates a ledger repository. lockWait <= 0 keeps
// the database default lock wait.
func NewQuotaLedgerRepository(gdb *gorm.DB, lockWait time.Duration, log logger.Interface) quota.LedgerRepository {
	return &QuotaLedgerRepositoryImpl{
		db:       gdb,
		mapper:   mappers.NewQuotaLedgerMapper(),
		lockWait: lockWait,
		logger:   log,
	}
}

func (r *QuotaLedgerRepositoryImpl) Create(ctx context.Context, ledger *quota.Ledger) error {
	model := r.mapper.ToModel(ledger)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if db.IsDuplicateError(err) {
			return fmt.Errorf("%w: owner %s", quota.ErrLedgerExists, ledger.OwnerID())
		}
		r.logger.Errorw("failed to create quota ledger", "owner_id", ledger.OwnerID(), "error", err)
		return fmt.Errorf("failed to create quota ledger: %w", err)
	}

	ledger.SetID(model.ID)
	ledger.MarkPersisted()
	return nil
}

func (r *QuotaLedgerRepositoryImpl) GetByOwnerID(ctx context.Context, ownerID string) (*quota.Ledger, error) {
	var model models.QuotaLedgerModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("owner_id = ?", ownerID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: owner %s", quota.ErrLedgerNotFound, ownerID)
		}
		return nil, fmt.Errorf("failed to get quota ledger: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *QuotaLedgerRepositoryImpl) LockByOwnerID(ctx context.Context, ownerID string) (*quota.Ledger, error) {
	tx, err := db.MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	restore, err := r.boundLockWait(tx)
	if err != nil {
		return nil, err
	}

	var model models.QuotaLedgerModel
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&model).Error
	restore()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: owner %s", quota.ErrLedgerNotFound, ownerID)
		}
		return nil, fmt.Errorf("failed to lock quota ledger: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// boundLockWait caps how long the following row lock may block and returns
// the function that undoes the cap. Postgres scopes the setting to the
// transaction. MySQL can only set it per session, so the session value is
// reset to the server default once the locking read returns; pooled
// connections never keep it. SQLite has no row locks; its single writer is
// bounded by the busy timeout instead.
func (r *QuotaLedgerRepositoryImpl) boundLockWait(tx *gorm.DB) (func(), error) {
	noop := func() {}
	if r.lockWait <= 0 {
		return noop, nil
	}

	switch tx.Dialector.Name() {
	case "postgres":
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockWait.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			return noop, fmt.Errorf("failed to set lock wait: %w", err)
		}
		return noop, nil
	case "mysql":
		secs := int(r.lockWait.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		stmt := fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", secs)
		if err := tx.Exec(stmt).Error; err != nil {
			return noop, fmt.Errorf("failed to set lock wait: %w", err)
		}
		return func() {
			if err := tx.Exec("SET SESSION innodb_lock_wait_timeout = DEFAULT").Error; err != nil {
				r.logger.Warnw("failed to reset lock wait", "error", err)
			}
		}, nil
	default:
		return noop, nil
	}
}

func (r *QuotaLedgerRepositoryImpl) Update(ctx context.Context, ledger *quota.Ledger) error {
	if !ledger.IsDirty() {
		return nil
	}

	tx, err := db.MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	model := r.mapper.ToModel(ledger)
	result := tx.Model(&models.QuotaLedgerModel{}).
		Where("owner_id = ? AND version = ?", model.OwnerID, ledger.PersistedVersion()).
		Updates(map[string]interface{}{
			"plan":               model.Plan,
			"status":             model.Status,
			"used_count":         model.UsedCount,
			"current_period_end": model.CurrentPeriodEnd,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update quota ledger", "owner_id", model.OwnerID, "error", result.Error)
		return fmt.Errorf("failed to update quota ledger: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: owner %s version %d", quota.ErrConcurrentModification, model.OwnerID, ledger.PersistedVersion())
	}

	ledger.MarkPersisted()
	return nil
}

func (r *QuotaLedgerRepositoryImpl) ListOwnerIDs(ctx context.Context) ([]string, error) {
	var ownerIDs []string
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.QuotaLedgerModel{}).
		Order("owner_id ASC").
		Pluck("owner_id", &ownerIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger owners: %w", err)
	}
	return ownerIDs, nil
}
