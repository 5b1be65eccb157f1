package migration

import (
	"fmt"

	"gorm.io/gorm"

	"photopick/internal/infrastructure/persistence/models"
	"photopick/internal/shared/logger"
)

// GormAutoMigrateStrategy derives the schema from the gorm models. It backs
// sqlite, where there are no hand-written scripts.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log.With("component", "migration.automigrate")}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB) error {
	all := models.All()
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	s.logger.Infow("auto-migration completed", "models_count", len(all))
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}
