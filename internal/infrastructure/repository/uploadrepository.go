package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"photopick/internal/domain/upload"
	"photopick/internal/infrastructure/persistence/mappers"
	"photopick/internal/infrastructure/persistence/models"
	"photopick/internal/shared/db"
	"photopick/internal/shared/logger"
)

type UploadRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.UploadMapper
	logger logger.Interface
}

func NewUploadRepository(gdb *gorm.DB, log logger.Interface) upload.Repository {
	return &UploadRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewUploadMapper(),
		logger: log,
	}
}

func (r *UploadRepositoryImpl) Create(ctx context.Context, u *upload.Upload) error {
	model, err := r.mapper.ToModel(u)
	if err != nil {
		return err
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create upload", "id", model.ID, "owner_id", model.OwnerID, "error", err)
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

func (r *UploadRepositoryImpl) GetByID(ctx context.Context, id string) (*upload.Upload, error) {
	var model models.UploadModel
	err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, upload.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *UploadRepositoryImpl) DeleteOwned(ctx context.Context, id, ownerID string) (bool, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.UploadModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete upload", "id", id, "owner_id", ownerID, "error", result.Error)
		return false, fmt.Errorf("failed to delete upload: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *UploadRepositoryImpl) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*upload.Upload, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.UploadModel{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count uploads: %w", err)
	}

	var rows []*models.UploadModel
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list uploads: %w", err)
	}

	entities, err := r.mapper.ToEntities(rows)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (r *UploadRepositoryImpl) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.UploadModel{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return total, nil
}
