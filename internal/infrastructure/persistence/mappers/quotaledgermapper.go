package mappers

import (
	"fmt"

	"photopick/internal/domain/quota"
	"photopick/internal/infrastructure/persistence/models"
)

// QuotaLedgerMapper converts between ledger aggregates and rows.
type QuotaLedgerMapper interface {
	ToEntity(model *models.QuotaLedgerModel) (*quota.Ledger, error)
	ToModel(entity *quota.Ledger) *models.QuotaLedgerModel
}

type quotaLedgerMapper struct{}

// NewQuotaLedgerMapper creates a new ledger mapper
func NewQuotaLedgerMapper() QuotaLedgerMapper {
	return &quotaLedgerMapper{}
}

// ToEntity reconstructs the aggregate; corrupted rows surface as quota.ErrLedgerCorrupted.
func (m *quotaLedgerMapper) ToEntity(model *models.QuotaLedgerModel) (*quota.Ledger, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := quota.ReconstructLedger(
		model.ID,
		model.OwnerID,
		quota.Plan(model.Plan),
		quota.Status(model.Status),
		model.UsedCount,
		model.CurrentPeriodEnd,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct quota ledger: %w", err)
	}
	return entity, nil
}

func (m *quotaLedgerMapper) ToModel(entity *quota.Ledger) *models.QuotaLedgerModel {
	if entity == nil {
		return nil
	}
	return &models.QuotaLedgerModel{
		ID:               entity.ID(),
		OwnerID:          entity.OwnerID(),
		Plan:             entity.Plan().String(),
		Status:           entity.Status().String(),
		UsedCount:        entity.UsedCount(),
		CurrentPeriodEnd: entity.CurrentPeriodEnd(),
		Version:          entity.Version(),
		CreatedAt:        entity.CreatedAt(),
		UpdatedAt:        entity.UpdatedAt(),
	}
}
