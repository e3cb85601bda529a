package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"teleconsult/config"
	"teleconsult/infras/jwt"
	"teleconsult/infras/jwt/jwttest"
	otelMocks "teleconsult/infras/otel/mocks"
	appointmentDto "teleconsult/internal/domains/appointment/model/dto"
	appointmentMocks "teleconsult/internal/domains/appointment/mocks"
	reminderDto "teleconsult/internal/domains/reminder/model/dto"
	reminderMocks "teleconsult/internal/domains/reminder/mocks"
	sessionMocks "teleconsult/internal/domains/session/mocks"
	appointmentHandler "teleconsult/internal/handlers/appointment"
	reminderHandler "teleconsult/internal/handlers/reminder"
	sessionHandler "teleconsult/internal/handlers/session"
	"teleconsult/permissions"
	"teleconsult/shared/actor"
	cacheMocks "teleconsult/shared/cache/mocks"
	"teleconsult/shared/constant"
	transport "teleconsult/transport/http"
	"teleconsult/transport/http/middleware"
	"teleconsult/transport/http/router"
)

const apiKey = "internal-key"

type fixture struct {
	server       *transport.HTTP
	cfg          *config.Config
	appointments *appointmentMocks.MockAppointmentService
	reminders    *reminderMocks.MockReminder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.App.APIKey = apiKey
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.MeetingSecret = "meeting-secret"
	cfg.JWT.Issuer = "teleconsult"

	otl := otelMocks.NewOtel()
	jwtService := jwt.New(cfg)

	appointments := appointmentMocks.NewMockAppointmentService(ctrl)
	reminders := reminderMocks.NewMockReminder(ctrl)
	sessions := sessionMocks.NewMockSession(ctrl)

	r := router.New(router.DomainHandlers{
		Appointment: appointmentHandler.New(appointments, otl),
		Session:     sessionHandler.New(sessions, otl),
		Reminder:    reminderHandler.New(reminders, otl),
	}, middleware.NewAuthRoleMiddleware(jwtService, otl, permissions.Get(), cfg))

	return fixture{
		server:       transport.New(cfg, r, middleware.NewAppMiddleware(otl, cfg, cacheMocks.NewMockRedisCache(ctrl))),
		cfg:          cfg,
		appointments: appointments,
		reminders:    reminders,
	}
}

func (f fixture) token(t *testing.T, role string) string {
	t.Helper()

	return jwttest.AccessToken(t, f.cfg, "u-1", jwt.AccessClaims{
		Email:        "doctor@clinic.test",
		Role:         role,
		OrgID:        "org-1",
		DepartmentID: "dep-1",
	})
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), constant.ResponseHealthy)
	assert.Equal(t, transport.ServerStateReady, f.server.State())
}

func TestProtectedRoutes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		code   int
	}{
		{
			name:   "missing bearer token",
			method: http.MethodGet,
			path:   "/v1/appointments/appt-1",
			code:   http.StatusUnauthorized,
		},
		{
			name:   "malformed bearer token",
			method: http.MethodGet,
			path:   "/v1/appointments/appt-1",
			header: map[string]string{constant.RequestHeaderAuthorization: "Bearer not-a-jwt"},
			code:   http.StatusUnauthorized,
		},
		{
			name:   "wrong api key",
			method: http.MethodPost,
			path:   "/v1/internal/reminders/scan",
			header: map[string]string{constant.RequestHeaderAPIKey: "guess"},
			code:   http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.code, f.do(req).Code)
		})
	}
}

func TestRoleNotAllowed(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/reminders/scan", nil)
	req.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+f.token(t, constant.RoleClient))

	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
}

func TestBearerTokenBecomesActor(t *testing.T) {
	f := newFixture(t)

	f.appointments.EXPECT().Get(gomock.Any(), "appt-1").
		DoAndReturn(func(ctx context.Context, _ string) (appointmentDto.AppointmentResponse, error) {
			caller := actor.FromContext(ctx)

			assert.Equal(t, "u-1", caller.ID)
			assert.Equal(t, "doctor@clinic.test", caller.Identity)
			assert.Equal(t, constant.RoleProvider, caller.Role)
			assert.Equal(t, "org-1", caller.OrgID)

			return appointmentDto.AppointmentResponse{ID: "appt-1"}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/v1/appointments/appt-1", nil)
	req.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+f.token(t, constant.RoleProvider))

	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data appointmentDto.AppointmentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "appt-1", body.Data.ID)
}

func TestAPIKeyRunsSweepAsSystem(t *testing.T) {
	f := newFixture(t)

	f.reminders.EXPECT().Sweep(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ time.Time) (reminderDto.SweepResult, error) {
			assert.Equal(t, actor.System(), actor.FromContext(ctx))

			return reminderDto.SweepResult{Scanned: 2, Sent: 2, Failed: []string{}}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/reminders/scan", nil)
	req.Header.Set(constant.RequestHeaderAPIKey, apiKey)

	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sent":2`)
}
