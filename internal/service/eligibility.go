package service

import (
	"kpr-backend/internal/model"
	"kpr-backend/pkg/apperr"

	"github.com/shopspring/decimal"
)

// ValidateApplicant rejects users whose account state bars them from
// submitting: suspended accounts get the explicit suspension error, any
// other inactive status the generic ineligibility one. Accounts still
// pending verification may submit; verification completes during the
// document stage.
func ValidateApplicant(user *model.User) error {
	switch user.Status {
	case model.UserStatusActive, model.UserStatusPendingVerification:
		return nil
	case model.UserStatusSuspended:
		return apperr.ErrUserSuspended
	default:
		return apperr.ErrUserNotEligible
	}
}

// ValidateProperty checks the financing constraints the property itself
// imposes, in a fixed order so callers always see the same first failure:
// availability, KPR eligibility, minimum down payment, maximum term.
func ValidateProperty(property *model.Property, downPayment decimal.Decimal, termYears int) error {
	if property.Status != model.PropertyStatusAvailable {
		return apperr.ErrPropertyUnavailable
	}
	if !property.IsKprEligible {
		return apperr.ErrNotKprEligible
	}
	if downPayment.LessThan(property.MinDownPayment()) {
		return apperr.ErrDownPaymentTooLow
	}
	if property.MaxLoanTermYears > 0 && termYears > property.MaxLoanTermYears {
		return apperr.ErrTermTooLong
	}
	return nil
}
