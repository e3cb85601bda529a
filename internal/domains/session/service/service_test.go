package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"teleconsult/config"
	"teleconsult/infras/chime"
	chimeMocks "teleconsult/infras/chime/mocks"
	"teleconsult/infras/jwt"
	kafkaMocks "teleconsult/infras/kafka/mocks"
	"teleconsult/infras/otel/mocks"
	appointmentMocks "teleconsult/internal/domains/appointment/mocks"
	appointmentModel "teleconsult/internal/domains/appointment/model"
	sessionMocks "teleconsult/internal/domains/session/mocks"
	"teleconsult/internal/domains/session/model"
	"teleconsult/internal/domains/session/model/dto"
	"teleconsult/internal/domains/session/repository"
	"teleconsult/internal/domains/session/service"
	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/failure"
)

const (
	appointmentID = "5b0f7f6e-8d7a-4a4e-9f55-0c1c4b7a9d10"
	provider      = "doc@clinic.test"
	client        = "pat@mail.test"
)

var scheduledAt = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

var backendSession = chime.Session{ID: "meeting-1", ExternalID: "ticket-1", MediaRegion: "us-east-1"}

func scheduledTicket() model.Ticket {
	return model.Ticket{
		ID:            "ticket-1",
		AppointmentID: appointmentID,
		ScheduledAt:   scheduledAt,
		Status:        model.StatusScheduled,
		Invitees:      pq.StringArray{provider, client},
	}
}

func startedTicket() model.Ticket {
	ticket := scheduledTicket()
	ticket.Status = model.StatusStarted
	ticket.BackendSessionID = sql.NullString{String: backendSession.ID, Valid: true}

	return ticket
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.MeetingSecret = "meeting-secret"
	cfg.JWT.Issuer = "teleconsult"

	return cfg
}

type fixture struct {
	tickets      *sessionMocks.MockTicket
	participants *sessionMocks.MockParticipant
	tokens       *sessionMocks.MockToken
	appointments *appointmentMocks.MockAppointment
	backend      *chimeMocks.MockBackend
	jwt          jwt.JWT
	svc          service.Session
}

// newFixture wires the service with mocks. A non-nil tickets replaces the ticket mock.
func newFixture(t *testing.T, tickets repository.Ticket) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	cfg := testConfig()

	f := &fixture{
		tickets:      sessionMocks.NewMockTicket(ctrl),
		participants: sessionMocks.NewMockParticipant(ctrl),
		tokens:       sessionMocks.NewMockToken(ctrl),
		appointments: appointmentMocks.NewMockAppointment(ctrl),
		backend:      chimeMocks.NewMockBackend(ctrl),
		jwt:          jwt.New(cfg),
	}

	if tickets == nil {
		tickets = f.tickets
	}

	f.svc = service.New(tickets, f.participants, f.tokens, f.appointments, f.backend, f.jwt, kafkaMocks.NewMockClient(ctrl), cfg, mocks.NewOtel())

	return f
}

// memoryTickets keeps a single ticket. WithTx holds a lock for the whole transaction,
// standing in for the row lock taken by SELECT ... FOR UPDATE.
type memoryTickets struct {
	rowLock sync.Mutex
	mu      sync.Mutex
	ticket  *model.Ticket
}

func (m *memoryTickets) WithTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	m.rowLock.Lock()
	defer m.rowLock.Unlock()

	m.mu.Lock()
	snapshot := *m.ticket
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		*m.ticket = snapshot
		m.mu.Unlock()

		return err
	}

	return nil
}

func (m *memoryTickets) InsertTx(context.Context, *sqlx.Tx, model.Ticket) error {
	return errors.New("not supported")
}

func (m *memoryTickets) Get(context.Context, gDto.FilterGroup, ...string) (model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return *m.ticket, nil
}

func (m *memoryTickets) GetTx(ctx context.Context, _ *sqlx.Tx, filter gDto.FilterGroup, _ bool) (model.Ticket, error) {
	return m.Get(ctx, filter)
}

func (m *memoryTickets) UpdateTx(_ context.Context, _ *sqlx.Tx, req map[string]any, _ gDto.FilterGroup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticket.Status != model.StatusScheduled {
		return 0, nil
	}

	if status, ok := req[model.FieldStatus].(string); ok {
		m.ticket.Status = status
	}

	if sessionID, ok := req[model.FieldBackendSessionID].(string); ok {
		m.ticket.BackendSessionID = sql.NullString{String: sessionID, Valid: true}
	}

	return 1, nil
}

func (m *memoryTickets) DeleteTx(context.Context, *sqlx.Tx, gDto.FilterGroup) error {
	return errors.New("not supported")
}

func TestSessionService_RequestAdmissionWindow(t *testing.T) {
	tests := []struct {
		name        string
		requester   string
		now         time.Time
		wantGranted bool
		wantReason  string
	}{
		{
			name:       "sixteen minutes early",
			requester:  client,
			now:        scheduledAt.Add(-16 * time.Minute),
			wantReason: model.ReasonTooEarly,
		},
		{
			name:        "exactly fifteen minutes early",
			requester:   client,
			now:         scheduledAt.Add(-15 * time.Minute),
			wantGranted: true,
		},
		{
			name:        "late joiner",
			requester:   "PAT@mail.test",
			now:         scheduledAt.Add(2 * time.Hour),
			wantGranted: true,
		},
		{
			name:       "not on roster",
			requester:  "intruder@mail.test",
			now:        scheduledAt,
			wantReason: model.ReasonNotInvited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := &memoryTickets{ticket: ptr(scheduledTicket())}
			f := newFixture(t, tickets)

			if tt.wantGranted {
				f.backend.EXPECT().
					CreateSession(gomock.Any(), "ticket-1", tt.requester).
					Return(backendSession, chime.Participant{ID: "att-1", ExternalUserID: "ext-1", JoinToken: "chime-token"}, nil)
				f.participants.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.appointments.EXPECT().
					UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *sqlx.Tx, req map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, backendSession.ID, req["backend_session_id"])
						assert.Equal(t, true, req["calling_enabled"])

						return 1, nil
					})
			}

			res, err := f.svc.RequestAdmission(context.Background(), appointmentID, tt.requester, tt.now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantGranted, res.Granted)
			assert.Equal(t, tt.wantReason, res.Reason)

			if !tt.wantGranted {
				assert.Equal(t, model.StatusScheduled, tickets.ticket.Status, "denial must not mutate the ticket")

				return
			}

			assert.Equal(t, backendSession.ID, res.Session.ID)
			assert.Equal(t, "att-1", res.Participant.ID)
			assert.Equal(t, model.StatusStarted, tickets.ticket.Status)
			assert.Equal(t, backendSession.ID, tickets.ticket.BackendSessionID.String)
		})
	}
}

func TestSessionService_RequestAdmissionNotScheduled(t *testing.T) {
	f := newFixture(t, nil)

	f.tickets.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Ticket{}, nil)

	_, err := f.svc.RequestAdmission(context.Background(), appointmentID, client, scheduledAt)

	assert.ErrorIs(t, err, model.ErrNotScheduled)
	assert.Equal(t, 404, failure.GetCode(err))
}

func TestSessionService_RequestAdmissionStarted(t *testing.T) {
	existing := model.Participant{ID: "p-1", SessionID: backendSession.ID, Identity: client, ParticipantID: "att-9"}

	tests := []struct {
		name          string
		setupMock     func(f *fixture)
		wantAttendee  string
		wantErrorCode int
	}{
		{
			name: "already registered",
			setupMock: func(f *fixture) {
				f.participants.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
			},
			wantAttendee: "att-9",
		},
		{
			name: "first join",
			setupMock: func(f *fixture) {
				f.participants.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Participant{}, nil)
				f.backend.EXPECT().
					RegisterParticipant(gomock.Any(), backendSession.ID, client).
					Return(chime.Participant{ID: "att-2"}, nil)
				f.participants.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantAttendee: "att-2",
		},
		{
			name: "parallel join already stored",
			setupMock: func(f *fixture) {
				gomock.InOrder(
					f.participants.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Participant{}, nil),
					f.backend.EXPECT().RegisterParticipant(gomock.Any(), backendSession.ID, client).Return(chime.Participant{ID: "att-3"}, nil),
					f.participants.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation}),
					f.participants.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil),
				)
			},
			wantAttendee: "att-9",
		},
		{
			name: "backend unavailable",
			setupMock: func(f *fixture) {
				f.backend.EXPECT().GetSession(gomock.Any(), backendSession.ID).Return(chime.Session{}, failure.Unavailable(errors.New("timeout")))
			},
			wantErrorCode: 503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			f.tickets.EXPECT().Get(gomock.Any(), gomock.Any()).Return(startedTicket(), nil)

			if tt.wantErrorCode == 0 {
				f.backend.EXPECT().GetSession(gomock.Any(), backendSession.ID).Return(backendSession, nil)
			}

			tt.setupMock(f)

			res, err := f.svc.RequestAdmission(context.Background(), appointmentID, client, scheduledAt)
			if tt.wantErrorCode != 0 {
				assert.Equal(t, tt.wantErrorCode, failure.GetCode(err))
				assert.True(t, failure.IsRetryable(err))

				return
			}

			require.NoError(t, err)
			assert.True(t, res.Granted)
			assert.Equal(t, backendSession.ID, res.Session.ID)
			assert.Equal(t, tt.wantAttendee, res.Participant.ID)
		})
	}
}

func TestSessionService_ConcurrentAdmissionCreatesOneSession(t *testing.T) {
	tickets := &memoryTickets{ticket: ptr(scheduledTicket())}

	// two replicas share storage but not their in-process state
	first := newFixture(t, tickets)
	second := newFixture(t, tickets)

	for _, f := range []*fixture{first, second} {
		f.participants.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		f.participants.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Participant{}, nil).AnyTimes()
		f.participants.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		f.appointments.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil).AnyTimes()
		f.backend.EXPECT().GetSession(gomock.Any(), backendSession.ID).Return(backendSession, nil).AnyTimes()
		f.backend.EXPECT().RegisterParticipant(gomock.Any(), backendSession.ID, gomock.Any()).Return(chime.Participant{ID: "att-n"}, nil).AnyTimes()
	}

	var created sync.WaitGroup

	created.Add(1)

	create := func(context.Context, string, string) (chime.Session, chime.Participant, error) {
		created.Done()

		return backendSession, chime.Participant{ID: "att-1"}, nil
	}

	// exactly one replica reaches the backend
	first.backend.EXPECT().CreateSession(gomock.Any(), "ticket-1", gomock.Any()).DoAndReturn(create).MaxTimes(1)
	second.backend.EXPECT().CreateSession(gomock.Any(), "ticket-1", gomock.Any()).DoAndReturn(create).MaxTimes(1)

	const callers = 8

	results := make([]dto.AdmissionResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			svc, requester := first.svc, provider
			if i%2 == 1 {
				svc, requester = second.svc, client
			}

			results[i], errs[i] = svc.RequestAdmission(context.Background(), appointmentID, requester, scheduledAt.Add(-5*time.Minute))
		}()
	}

	wg.Wait()
	created.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Granted)
		assert.Equal(t, backendSession.ID, results[i].Session.ID)
	}

	assert.Equal(t, model.StatusStarted, tickets.ticket.Status)
}

func TestSessionService_Redeem(t *testing.T) {
	cfg := testConfig()
	issuer := jwt.New(cfg)

	clientToken, err := issuer.IssueMeetingToken(client, appointmentID)
	require.NoError(t, err)

	stored := model.JoinToken{ID: "tok-1", TicketID: "ticket-1", Role: model.RoleClient, Subject: client, Token: clientToken}

	tests := []struct {
		name      string
		req       dto.JoinRequest
		setupMock func(f *fixture)
		wantErr   error
	}{
		{
			name:      "malformed token",
			req:       dto.JoinRequest{Token: "not-a-token"},
			setupMock: func(*fixture) {},
			wantErr:   model.ErrInvalidToken,
		},
		{
			name:      "token for another appointment",
			req:       dto.JoinRequest{Token: clientToken, AppointmentID: "0e7a3c5e-1111-4d4d-8888-222233334444"},
			setupMock: func(*fixture) {},
			wantErr:   model.ErrNotScheduled,
		},
		{
			name: "appointment cancelled",
			req:  dto.JoinRequest{Token: clientToken},
			setupMock: func(f *fixture) {
				f.tokens.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.JoinToken{}, nil)
			},
			wantErr: model.ErrNotScheduled,
		},
		{
			name: "roster entry bound to another ticket",
			req:  dto.JoinRequest{Token: clientToken},
			setupMock: func(f *fixture) {
				other := scheduledTicket()
				other.AppointmentID = "0e7a3c5e-1111-4d4d-8888-222233334444"

				f.tokens.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
				f.tickets.EXPECT().Get(gomock.Any(), gomock.Any()).Return(other, nil)
			},
			wantErr: model.ErrInvalidToken,
		},
		{
			name: "granted through the started session",
			req:  dto.JoinRequest{Token: clientToken, AppointmentID: appointmentID},
			setupMock: func(f *fixture) {
				f.tokens.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
				f.tickets.EXPECT().Get(gomock.Any(), gomock.Any()).Return(startedTicket(), nil)
				f.backend.EXPECT().GetSession(gomock.Any(), backendSession.ID).Return(backendSession, nil)
				f.participants.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Participant{ID: "p-1", ParticipantID: "att-1", Identity: client}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.setupMock(f)

			res, err := f.svc.Redeem(context.Background(), tt.req, scheduledAt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, res.Granted)

				return
			}

			require.NoError(t, err)
			assert.True(t, res.Granted)
			assert.Equal(t, appointmentID, res.AppointmentID)
		})
	}
}

func TestSessionService_Schedule(t *testing.T) {
	req := dto.ScheduleRequest{
		AppointmentID: appointmentID,
		ScheduledAt:   scheduledAt,
		Provider:      "Doc@Clinic.test",
		Client:        client,
		User:          provider,
	}

	t.Run("ticket and tokens", func(t *testing.T) {
		f := newFixture(t, nil)

		f.tickets.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, _ *sqlx.Tx, ticket model.Ticket) error {
			assert.Equal(t, model.StatusScheduled, ticket.Status)
			assert.Equal(t, pq.StringArray{provider, client}, ticket.Invitees)
			assert.False(t, ticket.BackendSessionID.Valid)

			return nil
		})
		f.tokens.EXPECT().InsertBulkTx(gomock.Any(), gomock.Any(), gomock.Len(2)).Return(nil)

		res, err := f.svc.Schedule(context.Background(), nil, req)
		require.NoError(t, err)

		claims, err := f.jwt.ValidateMeetingToken(res.Tokens[model.RoleProvider].Token)
		require.NoError(t, err)
		assert.Equal(t, provider, claims.Email)
		assert.Equal(t, appointmentID, claims.AppointmentID)
		assert.Equal(t, client, res.Tokens[model.RoleClient].Subject)
	})

	t.Run("already scheduled", func(t *testing.T) {
		f := newFixture(t, nil)

		f.tickets.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation})

		_, err := f.svc.Schedule(context.Background(), nil, req)
		assert.ErrorIs(t, err, model.ErrAlreadyScheduled)
	})
}

func TestSessionService_Release(t *testing.T) {
	t.Run("no ticket", func(t *testing.T) {
		f := newFixture(t, nil)

		f.tickets.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any(), true).Return(model.Ticket{}, nil)

		ticket, err := f.svc.Release(context.Background(), nil, appointmentID)
		require.NoError(t, err)
		assert.Empty(t, ticket.ID)
	})

	t.Run("started ticket", func(t *testing.T) {
		f := newFixture(t, nil)

		f.tickets.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any(), true).Return(startedTicket(), nil)
		f.tickets.EXPECT().DeleteTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		ticket, err := f.svc.Release(context.Background(), nil, appointmentID)
		require.NoError(t, err)
		assert.True(t, ticket.Started())
	})
}

func TestSessionService_Teardown(t *testing.T) {
	f := newFixture(t, nil)

	f.backend.EXPECT().DeleteSession(gomock.Any(), backendSession.ID).Return(failure.Unavailable(errors.New("timeout")))

	err := f.svc.Teardown(context.Background(), backendSession.ID)
	assert.True(t, failure.IsRetryable(err))
}

func ptr[T any](v T) *T {
	return &v
}

func TestSessionService_GetTicketScope(t *testing.T) {
	stored := appointmentModel.Appointment{
		ID:            appointmentID,
		OrgID:         "org-1",
		DepartmentID:  "dept-1",
		ProviderEmail: provider,
		ClientEmail:   client,
	}

	tests := []struct {
		name      string
		caller    actor.Actor
		loadsAppt bool
		wantErr   error
	}{
		{
			name:   "invited client",
			caller: actor.Actor{Identity: "PAT@mail.test", Role: constant.RoleClient},
		},
		{
			name:   "superadmin",
			caller: actor.Actor{Identity: "root@ops.test", Role: constant.RoleSuperAdmin},
		},
		{
			name:      "org admin of the appointment",
			caller:    actor.Actor{Identity: "admin@clinic.test", Role: constant.RoleOrgAdmin, OrgID: "org-1"},
			loadsAppt: true,
		},
		{
			name:      "provider of another org",
			caller:    actor.Actor{Identity: "other@elsewhere.test", Role: constant.RoleProvider, OrgID: "org-2"},
			loadsAppt: true,
			wantErr:   appointmentModel.ErrOutOfScope,
		},
		{
			name:      "org admin of another org",
			caller:    actor.Actor{Identity: "admin@elsewhere.test", Role: constant.RoleOrgAdmin, OrgID: "org-2"},
			loadsAppt: true,
			wantErr:   appointmentModel.ErrOutOfScope,
		},
		{
			name:      "uninvited client",
			caller:    actor.Actor{Identity: "someone@mail.test", Role: constant.RoleClient},
			loadsAppt: true,
			wantErr:   appointmentModel.ErrOutOfScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			f.tickets.EXPECT().Get(gomock.Any(), gomock.Any()).Return(startedTicket(), nil)
			if tt.loadsAppt {
				f.appointments.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
			}

			res, err := f.svc.GetTicket(actor.WithActor(context.Background(), tt.caller), appointmentID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 403, failure.GetCode(err))
				assert.Empty(t, res.ID)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ticket-1", res.ID)
		})
	}
}
