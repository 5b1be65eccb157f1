package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"photopick/internal/domain/upload"
	"photopick/internal/infrastructure/persistence/models"
)

// UploadMapper converts between upload entities and rows.
type UploadMapper interface {
	ToEntity(model *models.UploadModel) (*upload.Upload, error)
	ToModel(entity *upload.Upload) (*models.UploadModel, error)
	ToEntities(models []*models.UploadModel) ([]*upload.Upload, error)
}

type uploadMapper struct{}

// NewUploadMapper creates a new upload mapper
func NewUploadMapper() UploadMapper {
	return &uploadMapper{}
}

func (m *uploadMapper) ToEntity(model *models.UploadModel) (*upload.Upload, error) {
	if model == nil {
		return nil, nil
	}

	var metadata map[string]any
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal upload metadata: %w", err)
		}
	}

	return upload.ReconstructUpload(
		model.ID,
		model.OwnerID,
		model.StorageKey,
		model.Size,
		model.ContentType,
		model.OriginalName,
		metadata,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

func (m *uploadMapper) ToModel(entity *upload.Upload) (*models.UploadModel, error) {
	if entity == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if len(entity.Metadata()) > 0 {
		raw, err := json.Marshal(entity.Metadata())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", upload.ErrInvalidMetadata, err)
		}
		metadata = datatypes.JSON(raw)
	}

	return &models.UploadModel{
		ID:           entity.ID(),
		OwnerID:      entity.OwnerID(),
		StorageKey:   entity.StorageKey(),
		Size:         entity.Size(),
		ContentType:  entity.ContentType(),
		OriginalName: entity.OriginalName(),
		Metadata:     metadata,
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}, nil
}

func (m *uploadMapper) ToEntities(rows []*models.UploadModel) ([]*upload.Upload, error) {
	entities := make([]*upload.Upload, 0, len(rows))
	for i, row := range rows {
		entity, err := m.ToEntity(row)
		if err != nil {
			return nil, fmt.Errorf("failed to map upload at index %d (ID %s): %w", i, row.ID, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
