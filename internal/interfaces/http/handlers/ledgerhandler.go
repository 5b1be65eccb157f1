package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"photopick/internal/domain/quota"
	"photopick/internal/shared/biztime"
	"photopick/internal/shared/errors"
	"photopick/internal/shared/logger"
	"photopick/internal/shared/utils"
)

type LedgerHandler struct {
	ledger ledgerService
	clock  biztime.Clock
	logger logger.Interface
}

func NewLedgerHandler(ledger ledgerService, clock biztime.Clock, logger logger.Interface) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		clock:  clock,
		logger: logger,
	}
}

// ProvisionLedgerRequest is sent by the account service when an owner signs
// up. An empty plan lets billing decide.
type ProvisionLedgerRequest struct {
	Plan string `json:"plan" validate:"omitempty,max=32,printascii"`
}

// ChangePlanRequest carries a billing update; omitted fields stay unchanged.
type ChangePlanRequest struct {
	Plan             *string `json:"plan" validate:"omitempty,max=32,printascii"`
	Status           *string `json:"status" validate:"omitempty,max=32,printascii"`
	CurrentPeriodEnd *string `json:"current_period_end" validate:"omitempty,max=64"`
	ClearPeriodEnd   bool    `json:"clear_period_end"`
}

func (h *LedgerHandler) ProvisionLedger(c *gin.Context) {
	ownerID := c.Param("owner_id")

	var req ProvisionLedgerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warnw("invalid request body for provision ledger", "owner_id", ownerID, "error", err)
			utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid request body", err.Error()))
			return
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var plan quota.Plan
	if req.Plan != "" {
		p, err := quota.ParsePlan(strings.ToUpper(req.Plan))
		if err != nil {
			utils.ErrorResponseWithError(c, toAppError(err))
			return
		}
		plan = p
	}

	ledger, err := h.ledger.Provision(c.Request.Context(), ownerID, plan)
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.CreatedResponse(c, ledger.Snapshot(h.clock.Now()), "Quota ledger provisioned")
}

func (h *LedgerHandler) GetQuota(c *gin.Context) {
	status, err := h.ledger.Status(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

func (h *LedgerHandler) ChangePlan(c *gin.Context) {
	ownerID := c.Param("owner_id")

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for change plan", "owner_id", ownerID, "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid request body", err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	change, err := req.toPlanChange()
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	ledger, err := h.ledger.ChangePlan(c.Request.Context(), ownerID, change)
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan updated", ledger.Snapshot(h.clock.Now()))
}

func (h *LedgerHandler) GetDrift(c *gin.Context) {
	drift, err := h.ledger.Reconcile(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		utils.ErrorResponseWithError(c, toAppError(err))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toDriftResponse(drift))
}

func (r ChangePlanRequest) toPlanChange() (quota.PlanChange, error) {
	var change quota.PlanChange

	if r.Plan != nil {
		p, err := quota.ParsePlan(strings.ToUpper(*r.Plan))
		if err != nil {
			return change, toAppError(err)
		}
		change.Plan = &p
	}
	if r.Status != nil {
		s, err := quota.ParseStatus(strings.ToLower(*r.Status))
		if err != nil {
			return change, toAppError(err)
		}
		change.Status = &s
	}
	if r.CurrentPeriodEnd != nil {
		end, err := biztime.ParseRFC3339(*r.CurrentPeriodEnd)
		if err != nil {
			return change, errors.NewValidationError("current_period_end must be an RFC3339 timestamp")
		}
		change.CurrentPeriodEnd = end
	}
	change.ClearPeriodEnd = r.ClearPeriodEnd
	return change, nil
}
