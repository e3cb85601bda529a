package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/shared/failure"
	"teleconsult/shared/validator"
)

type bookingPayload struct {
	ProviderEmail string   `json:"provider_email" validate:"required,email"`
	StartTime     string   `json:"start_time"     validate:"required,timestamp"`
	Status        string   `json:"status"         validate:"omitempty,oneof=booked cancelled"`
	Invitees      []string `json:"invitees"       validate:"omitempty,dive,email"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name: "valid",
			body: `{"provider_email":"dr@clinic.test","start_time":"2026-05-01T10:00:00Z","status":"booked"}`,
		},
		{
			name:    "malformed json",
			body:    `{"provider_email":`,
			message: "failed to decode request body",
		},
		{
			name:    "missing field uses json name",
			body:    `{"start_time":"2026-05-01T10:00:00Z"}`,
			message: "provider_email is required",
		},
		{
			name:    "bad timestamp",
			body:    `{"provider_email":"dr@clinic.test","start_time":"tomorrow"}`,
			message: "start_time must be an RFC3339 timestamp",
		},
		{
			name:    "bad enum",
			body:    `{"provider_email":"dr@clinic.test","start_time":"2026-05-01T10:00:00Z","status":"lost"}`,
			message: "status must be one of booked cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload bookingPayload

			err := validator.Validate(strings.NewReader(tt.body), &payload)
			if tt.message == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("doctor@clinic.test", "required,email"))
	assert.EqualError(t, validator.ValidateVar("", "required"), " is required")
}
