package quota

import (
	"errors"
	"fmt"
)

var (
	ErrLedgerNotFound         = errors.New("quota ledger not found")
	ErrLedgerExists           = errors.New("quota ledger already provisioned")
	ErrLedgerCorrupted        = errors.New("quota ledger corrupted")
	ErrInvalidPlan            = errors.New("invalid plan")
	ErrInvalidStatus          = errors.New("invalid subscription status")
	ErrInvalidAmount          = errors.New("amount must be at least 1")
	ErrInvalidOwner           = errors.New("owner id is required")
	ErrPeriodRequired         = errors.New("active paid plan requires a current period end in the future")
	ErrOwnerBusy              = errors.New("owner is busy, try again")
	ErrConcurrentModification = errors.New("quota ledger modified concurrently")
	ErrConflictRetryExhausted = errors.New("conflict retries exhausted")
	ErrPlanSourceUnavailable  = errors.New("plan source unavailable")
	ErrEmptyPlanChange        = errors.New("plan change has no fields set")
)

// RejectionReason tells a caller why capacity was refused.
type RejectionReason string

const (
	ReasonQuotaExceeded        RejectionReason = "QUOTA_EXCEEDED"
	ReasonSubscriptionInactive RejectionReason = "SUBSCRIPTION_INACTIVE"
)

// Rejection is an expected outcome, not a fault. It implements error so the
// HTTP boundary can map it like any other failure.
type Rejection struct {
	Reason RejectionReason
	Used   int
	Limit  int
}

func (r *Rejection) Error() string {
	if r.Reason == ReasonQuotaExceeded {
		return fmt.Sprintf("upload quota exceeded: used=%d, limit=%d", r.Used, r.Limit)
	}
	return "subscription is not active"
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsTransient reports whether err is worth replaying the owner section for.
func IsTransient(err error) bool {
	return errors.Is(err, ErrOwnerBusy) || errors.Is(err, ErrConcurrentModification)
}
