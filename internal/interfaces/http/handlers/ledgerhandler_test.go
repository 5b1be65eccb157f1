package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photopick/internal/domain/quota"
	"photopick/internal/interfaces/http/handlers/testutil"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/logger"
)

var handlerNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type mockLedgerService struct {
	ledger     *quota.Ledger
	status     *quota.LedgerStatus
	drift      *quota.Drift
	err        error
	gotPlan    quota.Plan
	gotChange  quota.PlanChange
	gotOwnerID string
}

func (m *mockLedgerService) Provision(_ context.Context, ownerID string, plan quota.Plan) (*quota.Ledger, error) {
	m.gotOwnerID, m.gotPlan = ownerID, plan
	return m.ledger, m.err
}

func (m *mockLedgerService) Status(_ context.Context, ownerID string) (*quota.LedgerStatus, error) {
	m.gotOwnerID = ownerID
	return m.status, m.err
}

func (m *mockLedgerService) ChangePlan(_ context.Context, ownerID string, change quota.PlanChange) (*quota.Ledger, error) {
	m.gotOwnerID, m.gotChange = ownerID, change
	return m.ledger, m.err
}

func (m *mockLedgerService) Reconcile(_ context.Context, ownerID string) (*quota.Drift, error) {
	m.gotOwnerID = ownerID
	return m.drift, m.err
}

func newTestLedgerHandler(svc ledgerService) *LedgerHandler {
	return NewLedgerHandler(svc, biztime.FixedClock(handlerNow), logger.NewNopLogger())
}

func testLedger(t *testing.T, plan quota.Plan) *quota.Ledger {
	t.Helper()
	l, err := quota.NewLedger("owner-1", plan, handlerNow)
	require.NoError(t, err)
	return l
}

func TestLedgerHandler_ProvisionLedger(t *testing.T) {
	svc := &mockLedgerService{ledger: testLedger(t, quota.PlanBasic)}
	handler := newTestLedgerHandler(svc)

	c, w := testutil.NewTestContext(http.MethodPost, "/api/owners/owner-1/ledger", ProvisionLedgerRequest{Plan: "basic"})
	testutil.SetURLParam(c, "owner_id", "owner-1")

	handler.ProvisionLedger(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, quota.PlanBasic, svc.gotPlan)
	assert.Equal(t, "owner-1", svc.gotOwnerID)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	var status quota.LedgerStatus
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, 1000, status.Limit)
	assert.Equal(t, quota.StatusIncomplete, status.Status)
}

func TestLedgerHandler_ProvisionLedger_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		err      error
		wantCode int
		wantType string
	}{
		{"unknown plan", ProvisionLedgerRequest{Plan: "GOLD"}, nil, http.StatusBadRequest, "validation_error"},
		{"already provisioned", nil, quota.ErrLedgerExists, http.StatusConflict, "conflict"},
		{"billing down", nil, quota.ErrPlanSourceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestLedgerHandler(&mockLedgerService{err: tt.err})
			c, w := testutil.NewTestContext(http.MethodPost, "/api/owners/owner-1/ledger", tt.body)
			testutil.SetURLParam(c, "owner_id", "owner-1")

			handler.ProvisionLedger(c)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp testutil.APIResponse
			require.NoError(t, testutil.ParseResponse(w, &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantType, resp.Error.Type)
		})
	}
}

func TestLedgerHandler_GetQuota(t *testing.T) {
	snapshot := testLedger(t, quota.PlanFree).Snapshot(handlerNow)
	handler := newTestLedgerHandler(&mockLedgerService{status: snapshot})

	c, w := testutil.NewTestContext(http.MethodGet, "/api/owners/owner-1/quota", nil)
	testutil.SetURLParam(c, "owner_id", "owner-1")

	handler.GetQuota(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var status map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, "owner-1", status["owner_id"])
	assert.Equal(t, float64(100), status["remaining"])
	assert.Equal(t, true, status["accepts_uploads"])
}

func TestLedgerHandler_GetQuota_NotFound(t *testing.T) {
	handler := newTestLedgerHandler(&mockLedgerService{err: quota.ErrLedgerNotFound})

	c, w := testutil.NewTestContext(http.MethodGet, "/api/owners/ghost/quota", nil)
	testutil.SetURLParam(c, "owner_id", "ghost")

	handler.GetQuota(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLedgerHandler_ChangePlan(t *testing.T) {
	svc := &mockLedgerService{ledger: testLedger(t, quota.PlanPro)}
	handler := newTestLedgerHandler(svc)

	plan, status, end := "pro", "ACTIVE", "2026-07-01T00:00:00Z"
	c, w := testutil.NewTestContext(http.MethodPatch, "/api/owners/owner-1/plan", ChangePlanRequest{
		Plan:             &plan,
		Status:           &status,
		CurrentPeriodEnd: &end,
	})
	testutil.SetURLParam(c, "owner_id", "owner-1")

	handler.ChangePlan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.gotChange.Plan)
	assert.Equal(t, quota.PlanPro, *svc.gotChange.Plan)
	require.NotNil(t, svc.gotChange.Status)
	assert.Equal(t, quota.StatusActive, *svc.gotChange.Status)
	require.NotNil(t, svc.gotChange.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), *svc.gotChange.CurrentPeriodEnd)
}

func TestLedgerHandler_ChangePlan_InvalidInput(t *testing.T) {
	badTime := "next month"
	badStatus := "frozen"
	longPlan := strings.Repeat("P", 40)

	tests := []struct {
		name string
		req  ChangePlanRequest
		err  error
	}{
		{"bad period end", ChangePlanRequest{CurrentPeriodEnd: &badTime}, nil},
		{"bad status", ChangePlanRequest{Status: &badStatus}, nil},
		{"plan too long", ChangePlanRequest{Plan: &longPlan}, nil},
		{"period required", ChangePlanRequest{}, quota.ErrPeriodRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestLedgerHandler(&mockLedgerService{err: tt.err})
			c, w := testutil.NewTestContext(http.MethodPatch, "/api/owners/owner-1/plan", tt.req)
			testutil.SetURLParam(c, "owner_id", "owner-1")

			handler.ChangePlan(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLedgerHandler_GetDrift(t *testing.T) {
	handler := newTestLedgerHandler(&mockLedgerService{
		drift: &quota.Drift{OwnerID: "owner-1", UsedCount: 5, Actual: 3},
	})

	c, w := testutil.NewTestContext(http.MethodGet, "/api/owners/owner-1/ledger/drift", nil)
	testutil.SetURLParam(c, "owner_id", "owner-1")

	handler.GetDrift(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var drift DriftResponse
	require.NoError(t, json.Unmarshal(resp.Data, &drift))
	assert.Equal(t, int64(2), drift.Delta)
	assert.False(t, drift.InSync)
}
