// Package apperr defines the sentinel errors the loan engine reports and
// their HTTP mapping. Callers distinguish kinds with errors.Is; services
// wrap them with fmt.Errorf("...: %w", ...) to add context.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// Input validation
	ErrInvalidParameters = errors.New("invalid parameters")

	// Lookups
	ErrNotFound = errors.New("not found")

	// Authorization
	ErrForbidden = errors.New("access denied")

	// Business rules
	ErrUserSuspended        = errors.New("user account is suspended")
	ErrUserNotEligible      = errors.New("user account is not eligible for KPR application")
	ErrPropertyUnavailable  = errors.New("property is not available for purchase")
	ErrNotKprEligible       = errors.New("property is not eligible for KPR financing")
	ErrDownPaymentTooLow    = errors.New("down payment is below the property minimum")
	ErrTermTooLong          = errors.New("loan term exceeds the property maximum")
	ErrNoEligibleRate       = errors.New("no eligible KPR rate found for the specified criteria")
	ErrDuplicateApplication = errors.New("a pending application already exists for this property")
	ErrSkipNotAllowed       = errors.New("this approval level cannot be skipped")

	// Workflow state
	ErrAlreadyCompleted = errors.New("workflow is already completed")

	// Concurrency
	ErrConflict = errors.New("concurrent update conflict")
)

// HTTPStatus maps an engine error to the status code the API returns.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidParameters):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserSuspended), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicateApplication),
		errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUserNotEligible),
		errors.Is(err, ErrPropertyUnavailable),
		errors.Is(err, ErrNotKprEligible),
		errors.Is(err, ErrDownPaymentTooLow),
		errors.Is(err, ErrTermTooLong),
		errors.Is(err, ErrNoEligibleRate),
		errors.Is(err, ErrSkipNotAllowed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
