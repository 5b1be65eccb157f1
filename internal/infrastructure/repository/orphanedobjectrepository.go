package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"photopick/internal/domain/upload"
	"photopick/internal/infrastructure/persistence/mappers"
	"photopick/internal/infrastructure/persistence/models"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
)

type OrphanedObjectRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.OrphanedObjectMapper
	logger logger.Interface
}

func NewOrphanedObjectRepository(gdb *gorm.DB, log logger.Interface) upload.OrphanRepository {
	return &OrphanedObjectRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewOrphanedObjectMapper(),
		logger: log,
	}
}

func (r *OrphanedObjectRepositoryImpl) Record(ctx context.Context, orphan *upload.OrphanedObject) error {
	model := r.mapper.ToModel(orphan)

	result := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempts":    gorm.Expr("orphaned_objects.attempts + 1"),
			"reason":      model.Reason,
			"last_error":  model.LastError,
			"resolved_at": nil,
			"updated_at":  model.UpdatedAt,
		}),
	}).Create(model)
	if result.Error != nil {
		r.logger.Errorw("failed to record orphaned object", "storage_key", model.StorageKey, "error", result.Error)
		return fmt.Errorf("failed to record orphaned object: %w", result.Error)
	}

	orphan.SetID(model.ID)
	return nil
}

func (r *OrphanedObjectRepositoryImpl) ListUnresolved(ctx context.Context, limit int) ([]*upload.OrphanedObject, error) {
	var rows []*models.OrphanedObjectModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("resolved_at IS NULL").
		Order("updated_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned objects: %w", err)
	}

	result := make([]*upload.OrphanedObject, 0, len(rows))
	for _, row := range rows {
		result = append(result, r.mapper.ToEntity(row))
	}
	return result, nil
}

func (r *OrphanedObjectRepositoryImpl) Update(ctx context.Context, orphan *upload.OrphanedObject) error {
	model := r.mapper.ToModel(orphan)

	result := db.GetTxFromContext(ctx, r.db).Model(&models.OrphanedObjectModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"attempts":    model.Attempts,
			"last_error":  model.LastError,
			"resolved_at": model.ResolvedAt,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update orphaned object", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update orphaned object: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", upload.ErrOrphanNotFound, model.ID)
	}
	return nil
}

func (r *OrphanedObjectRepositoryImpl) CountUnresolved(ctx context.Context) (int64, error) {
	var total int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.OrphanedObjectModel{}).
		Where("resolved_at IS NULL").
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orphaned objects: %w", err)
	}
	return total, nil
}
