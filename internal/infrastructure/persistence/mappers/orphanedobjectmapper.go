package mappers

import (
	"photopick/internal/domain/upload"
	"photopick/internal/infrastructure/persistence/models"
	"photopick/internal/shared/utils"
)

const maxLastErrorLength = 512

// OrphanedObjectMapper converts between orphan entities and rows.
type OrphanedObjectMapper interface {
	ToEntity(model *models.OrphanedObjectModel) *upload.OrphanedObject
	ToModel(entity *upload.OrphanedObject) *models.OrphanedObjectModel
}

type orphanedObjectMapper struct{}

// NewOrphanedObjectMapper creates a new orphan mapper
func NewOrphanedObjectMapper() OrphanedObjectMapper {
	return &orphanedObjectMapper{}
}

func (m *orphanedObjectMapper) ToEntity(model *models.OrphanedObjectModel) *upload.OrphanedObject {
	if model == nil {
		return nil
	}
	return upload.ReconstructOrphanedObject(
		model.ID,
		model.StorageKey,
		upload.OrphanReason(model.Reason),
		model.Attempts,
		model.LastError,
		model.ResolvedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *orphanedObjectMapper) ToModel(entity *upload.OrphanedObject) *models.OrphanedObjectModel {
	if entity == nil {
		return nil
	}
	return &models.OrphanedObjectModel{
		ID:         entity.ID(),
		StorageKey: entity.StorageKey(),
		Reason:     string(entity.Reason()),
		Attempts:   entity.Attempts(),
		LastError:  utils.Truncate(entity.LastError(), maxLastErrorLength),
		ResolvedAt: entity.ResolvedAt(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}
}
