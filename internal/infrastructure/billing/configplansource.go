// Package billing adapts the billing side to the ledger's PlanSource.
package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"photopick/internal/domain/quota"
	"photopick/internal/shared/config"
)

// ConfigPlanSource answers plans from configuration: explicit per-owner
// assignments first, the default plan otherwise. Assignments can be replaced
// at runtime when configuration is reloaded. Owner ids match case-insensitively
// because viper lowercases map keys.
type ConfigPlanSource struct {
	mu          sync.RWMutex
	defaultPlan quota.Plan
	ownerPlans  map[string]quota.Plan
}

// NewConfigPlanSource validates every configured plan up front.
func NewConfigPlanSource(cfg *config.BillingConfig) (*ConfigPlanSource, error) {
	s := &ConfigPlanSource{}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload swaps in new assignments; on error the previous ones stay.
func (s *ConfigPlanSource) Reload(cfg *config.BillingConfig) error {
	defaultPlan := quota.PlanFree
	if cfg.DefaultPlan != "" {
		p, err := quota.ParsePlan(cfg.DefaultPlan)
		if err != nil {
			return fmt.Errorf("billing.default_plan: %w", err)
		}
		defaultPlan = p
	}

	ownerPlans := make(map[string]quota.Plan, len(cfg.OwnerPlans))
	for ownerID, raw := range cfg.OwnerPlans {
		p, err := quota.ParsePlan(raw)
		if err != nil {
			return fmt.Errorf("billing.owner_plans[%s]: %w", ownerID, err)
		}
		ownerPlans[strings.ToLower(ownerID)] = p
	}

	s.mu.Lock()
	s.defaultPlan = defaultPlan
	s.ownerPlans = ownerPlans
	s.mu.Unlock()
	return nil
}

func (s *ConfigPlanSource) CurrentPlan(ctx context.Context, ownerID string) (quota.Plan, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.ownerPlans[strings.ToLower(ownerID)]; ok {
		return p, nil
	}
	return s.defaultPlan, nil
}
