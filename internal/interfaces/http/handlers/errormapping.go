package handlers

import (
	"context"
	"errors"

	"photopick/internal/domain/quota"
	domain "photopick/internal/domain/upload"
	apperrors "photopick/internal/shared/errors"
)

// toAppError translates service errors into the API error envelope. Errors
// it does not know stay unmapped and surface as internal errors.
func toAppError(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}

	if rejection, ok := quota.AsRejection(err); ok {
		return rejectionError(rejection)
	}

	switch {
	case errors.Is(err, quota.ErrLedgerNotFound):
		return apperrors.NewNotFoundError("Quota ledger not found")
	case errors.Is(err, domain.ErrUploadNotFound):
		return apperrors.NewNotFoundError("Upload not found")
	case errors.Is(err, quota.ErrLedgerExists):
		return apperrors.NewConflictError("Quota ledger already exists")
	case errors.Is(err, quota.ErrOwnerBusy):
		return apperrors.NewServiceUnavailableError("Owner is busy, retry later")
	case errors.Is(err, quota.ErrConflictRetryExhausted):
		return apperrors.NewConflictError("Too many concurrent changes for this owner, retry later")
	case errors.Is(err, domain.ErrTooLarge):
		return apperrors.NewPayloadTooLargeError("Upload exceeds the maximum size", err.Error())
	case errors.Is(err, domain.ErrStorage):
		return apperrors.NewServiceUnavailableError("Object storage is unavailable")
	case errors.Is(err, quota.ErrPlanSourceUnavailable):
		return apperrors.NewServiceUnavailableError("Billing is unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewServiceUnavailableError("Request timed out")
	case errors.Is(err, quota.ErrInvalidPlan),
		errors.Is(err, quota.ErrInvalidStatus),
		errors.Is(err, quota.ErrInvalidAmount),
		errors.Is(err, quota.ErrInvalidOwner),
		errors.Is(err, quota.ErrPeriodRequired),
		errors.Is(err, quota.ErrEmptyPlanChange),
		errors.Is(err, domain.ErrEmptyBody),
		errors.Is(err, domain.ErrInvalidUploadID),
		errors.Is(err, domain.ErrInvalidMetadata):
		return apperrors.NewValidationError(err.Error())
	}
	return err
}

func rejectionError(r *quota.Rejection) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch r.Reason {
	case quota.ReasonSubscriptionInactive:
		appErr = apperrors.NewSubscriptionInactiveError("Subscription is not active")
	default:
		appErr = apperrors.NewQuotaExceededError("Upload quota exceeded")
	}
	return appErr.
		WithField("reason", string(r.Reason)).
		WithField("used", r.Used).
		WithField("limit", r.Limit)
}
