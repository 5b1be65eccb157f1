package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/domain/quota"
	"photopick/internal/shared/config"
)

func TestConfigPlanSource(t *testing.T) {
	src, err := NewConfigPlanSource(&config.BillingConfig{
		DefaultPlan: "FREE",
		OwnerPlans:  map[string]string{"studio-9": "PRO"},
	})
	require.NoError(t, err)
	ctx := context.Background()

	p, err := src.CurrentPlan(ctx, "studio-9")
	require.NoError(t, err)
	assert.Equal(t, quota.PlanPro, p)

	p, err = src.CurrentPlan(ctx, "Studio-9")
	require.NoError(t, err)
	assert.Equal(t, quota.PlanPro, p)

	p, err = src.CurrentPlan(ctx, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, quota.PlanFree, p)
}

func TestConfigPlanSource_RejectsUnknownPlans(t *testing.T) {
	_, err := NewConfigPlanSource(&config.BillingConfig{DefaultPlan: "GOLD"})
	assert.ErrorIs(t, err, quota.ErrInvalidPlan)

	src, err := NewConfigPlanSource(&config.BillingConfig{})
	require.NoError(t, err)

	err = src.Reload(&config.BillingConfig{OwnerPlans: map[string]string{"a": "basic"}})
	assert.ErrorIs(t, err, quota.ErrInvalidPlan)

	p, err := src.CurrentPlan(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, quota.PlanFree, p)
}
