package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitFor(t *testing.T) {
	assert.Equal(t, 100, LimitFor(PlanFree))
	assert.Equal(t, 1000, LimitFor(PlanBasic))
	assert.Equal(t, 3000, LimitFor(PlanPro))
}

func TestLimitFor_UnknownPlanPanics(t *testing.T) {
	assert.Panics(t, func() { LimitFor(Plan("ENTERPRISE")) })
}

func TestParsePlan(t *testing.T) {
	for _, p := range Plans {
		got, err := ParsePlan(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePlan("free")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.Contains(t, err.Error(), "[FREE BASIC PRO]")
	_, err = ParsePlan("")
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestPlan_Tiers(t *testing.T) {
	assert.True(t, PlanFree.IsFree())
	assert.False(t, PlanFree.IsPaid())
	assert.True(t, PlanBasic.IsPaid())
	assert.True(t, PlanPro.IsPaid())
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"active", "past_due", "canceled", "incomplete"} {
		_, err := ParseStatus(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
