package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/domain/quota"
	"photopick/internal/interfaces/cli/bootstrap"
)

func parseChangeFlags(t *testing.T, args ...string) (quota.PlanChange, error) {
	t.Helper()
	cmd := newChangePlanCommand(&bootstrap.Options{})
	require.NoError(t, cmd.ParseFlags(args))

	get := func(name string) string {
		v, err := cmd.Flags().GetString(name)
		require.NoError(t, err)
		return v
	}
	clearEnd, err := cmd.Flags().GetBool("clear-period-end")
	require.NoError(t, err)
	return buildPlanChange(cmd, get("plan"), get("status"), get("period-end"), clearEnd)
}

func TestBuildPlanChange(t *testing.T) {
	change, err := parseChangeFlags(t, "--plan", "pro", "--status", "ACTIVE", "--period-end", "2026-07-01T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, change.Plan)
	assert.Equal(t, quota.PlanPro, *change.Plan)
	require.NotNil(t, change.Status)
	assert.Equal(t, quota.StatusActive, *change.Status)
	require.NotNil(t, change.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), *change.CurrentPeriodEnd)

	change, err = parseChangeFlags(t, "--status", "canceled")
	require.NoError(t, err)
	assert.Nil(t, change.Plan)
	assert.Equal(t, quota.StatusCanceled, *change.Status)
}

func TestBuildPlanChange_Invalid(t *testing.T) {
	_, err := parseChangeFlags(t)
	assert.ErrorIs(t, err, quota.ErrEmptyPlanChange)

	_, err = parseChangeFlags(t, "--plan", "gold")
	assert.ErrorIs(t, err, quota.ErrInvalidPlan)

	_, err = parseChangeFlags(t, "--status", "frozen")
	assert.ErrorIs(t, err, quota.ErrInvalidStatus)

	_, err = parseChangeFlags(t, "--period-end", "tomorrow")
	assert.Error(t, err)
}
