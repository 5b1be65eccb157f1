// Package migration brings the database schema up to date for the
// configured driver.
package migration

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"photopick/internal/shared/logger"
)

// ErrNotVersioned is returned for version operations on a strategy that
// does not track versions.
var ErrNotVersioned = errors.New("migration strategy does not track versions")

// Manager handles database migrations with the strategy fitting the driver
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose scripts for mysql and postgres and AutoMigrate for sqlite.
func NewManager(driver string, log logger.Interface) (*Manager, error) {
	var strategy Strategy
	switch driver {
	case "sqlite":
		strategy = NewGormAutoMigrateStrategy(log)
	default:
		s, err := NewGooseStrategy(driver, log)
		if err != nil {
			return nil, err
		}
		strategy = s
	}
	return NewManagerWithStrategy(strategy, log), nil
}

// NewManagerWithStrategy creates a new migration manager with a specific strategy
func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.With("component", "migration.manager"),
	}
}

// Migrate executes the configured migration strategy
func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed successfully", "strategy", m.strategy.GetName())
	return nil
}

func (m *Manager) Down(db *gorm.DB, steps int) error {
	v, err := m.versioned()
	if err != nil {
		return err
	}
	return v.MigrateDown(db, steps)
}

func (m *Manager) Version(db *gorm.DB) (int64, error) {
	v, err := m.versioned()
	if err != nil {
		return 0, err
	}
	return v.GetVersion(db)
}

func (m *Manager) Status(db *gorm.DB) error {
	v, err := m.versioned()
	if err != nil {
		return err
	}
	return v.Status(db)
}

// GetStrategy returns the current migration strategy
func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}

func (m *Manager) versioned() (VersionedStrategy, error) {
	v, ok := m.strategy.(VersionedStrategy)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotVersioned, m.strategy.GetName())
	}
	return v, nil
}
