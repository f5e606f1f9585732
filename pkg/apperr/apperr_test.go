package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidParameters, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrUserSuspended, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{ErrDuplicateApplication, http.StatusConflict},
		{ErrAlreadyCompleted, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrUserNotEligible, http.StatusUnprocessableEntity},
		{ErrPropertyUnavailable, http.StatusUnprocessableEntity},
		{ErrNotKprEligible, http.StatusUnprocessableEntity},
		{ErrDownPaymentTooLow, http.StatusUnprocessableEntity},
		{ErrTermTooLong, http.StatusUnprocessableEntity},
		{ErrNoEligibleRate, http.StatusUnprocessableEntity},
		{ErrSkipNotAllowed, http.StatusUnprocessableEntity},
		{fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestWrappedErrorsKeepTheirStatus(t *testing.T) {
	wrapped := fmt.Errorf("submit failed: %w", ErrDownPaymentTooLow)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(wrapped))

	doubly := fmt.Errorf("handler: %w", wrapped)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(doubly))
}
