package failure_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"teleconsult/shared/failure"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "bad request from string",
			err:     failure.BadRequestFromString("start_time must be before end_time"),
			code:    http.StatusBadRequest,
			message: "start_time must be before end_time",
		},
		{
			name:    "bad request from error",
			err:     failure.BadRequest(errors.New("invalid date")),
			code:    http.StatusBadRequest,
			message: "invalid date",
		},
		{
			name:    "unauthorized",
			err:     failure.Unauthorized("invalid meeting token"),
			code:    http.StatusUnauthorized,
			message: "invalid meeting token",
		},
		{
			name:    "forbidden",
			err:     failure.Forbidden("doctor can only manage own appointments"),
			code:    http.StatusForbidden,
			message: "doctor can only manage own appointments",
		},
		{
			name:    "not found",
			err:     failure.NotFound("appointment not found"),
			code:    http.StatusNotFound,
			message: "appointment not found",
		},
		{
			name:    "conflict",
			err:     failure.Conflict("appointment is already booked in the time frame"),
			code:    http.StatusConflict,
			message: "appointment is already booked in the time frame",
		},
		{
			name:    "internal",
			err:     failure.InternalError(errors.New("boom")),
			code:    http.StatusInternalServerError,
			message: "boom",
		},
		{
			name:    "unavailable",
			err:     failure.Unavailable(errors.New("chime timeout")),
			code:    http.StatusServiceUnavailable,
			message: "chime timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f *failure.Failure

			assert.ErrorAs(t, tt.err, &f)
			assert.Equal(t, tt.code, f.Code)
			assert.Equal(t, tt.message, f.Error())
		})
	}
}

func TestNilInputs(t *testing.T) {
	assert.NoError(t, failure.BadRequest(nil))
	assert.NoError(t, failure.InternalError(nil))
	assert.NoError(t, failure.Unavailable(nil))
}

func TestGetCode(t *testing.T) {
	wrapped := fmt.Errorf("failed to book: %w", failure.Conflict("slot taken"))

	assert.Equal(t, http.StatusConflict, failure.GetCode(wrapped))
	assert.Equal(t, http.StatusForbidden, failure.GetCode(failure.ForbiddenError))
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, failure.GetCode(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, failure.IsRetryable(fmt.Errorf("wrapped: %w", failure.Unavailable(errors.New("db down")))))
	assert.False(t, failure.IsRetryable(failure.Conflict("slot taken")))
	assert.False(t, failure.IsRetryable(errors.New("plain")))
}

func TestCauseIsReachable(t *testing.T) {
	cause := fmt.Errorf("query appointments: %w", context.DeadlineExceeded)
	err := fmt.Errorf("failed to check availability: %w", failure.Unavailable(cause))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "failed to check availability: query appointments: context deadline exceeded", err.Error())

	var f *failure.Failure
	assert.ErrorAs(t, err, &f)
	assert.Equal(t, cause.Error(), f.Message)
}
