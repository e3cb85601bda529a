package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"teleconsult/config"
	"teleconsult/infras/chime"
	"teleconsult/infras/jwt"
	"teleconsult/infras/kafka"
	"teleconsult/infras/otel"
	appointmentModel "teleconsult/internal/domains/appointment/model"
	appointmentRepo "teleconsult/internal/domains/appointment/repository"
	"teleconsult/internal/domains/session/model"
	"teleconsult/internal/domains/session/model/dto"
	"teleconsult/internal/domains/session/repository"
	"teleconsult/shared"
	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/failure"
	gModel "teleconsult/shared/model"
	"teleconsult/shared/timezone"
)

var errActivationLost = errors.New("ticket changed state during activation")

type Session interface {
	// Schedule creates the ticket and one join token per invitee inside the caller's transaction.
	Schedule(ctx context.Context, tx *sqlx.Tx, req dto.ScheduleRequest) (dto.ScheduleResult, error)
	// Reschedule moves a not yet started ticket. Started or missing tickets are left alone.
	Reschedule(ctx context.Context, tx *sqlx.Tx, appointmentID string, at time.Time) error
	// Release deletes the ticket and its tokens, returning what was removed (zero value if none).
	Release(ctx context.Context, tx *sqlx.Tx, appointmentID string) (model.Ticket, error)
	Teardown(ctx context.Context, backendSessionID string) error
	RequestAdmission(ctx context.Context, appointmentID, requester string, now time.Time) (dto.AdmissionResult, error)
	Redeem(ctx context.Context, req dto.JoinRequest, now time.Time) (dto.AdmissionResult, error)
	GetTicket(ctx context.Context, appointmentID string) (dto.TicketResponse, error)
}

type serviceImpl struct {
	ticketRepo      repository.Ticket
	participantRepo repository.Participant
	tokenRepo       repository.Token
	appointmentRepo appointmentRepo.Appointment
	backend         chime.Backend
	jwt             jwt.JWT
	kafka           kafka.Client
	cfg             *config.Config
	otel            otel.Otel

	activations singleflight.Group
}

func New(
	ticketRepo repository.Ticket,
	participantRepo repository.Participant,
	tokenRepo repository.Token,
	appointmentRepo appointmentRepo.Appointment,
	backend chime.Backend,
	jwt jwt.JWT,
	kafka kafka.Client,
	cfg *config.Config,
	otel otel.Otel,
) Session {
	return &serviceImpl{
		ticketRepo:      ticketRepo,
		participantRepo: participantRepo,
		tokenRepo:       tokenRepo,
		appointmentRepo: appointmentRepo,
		backend:         backend,
		jwt:             jwt,
		kafka:           kafka,
		cfg:             cfg,
		otel:            otel,
	}
}

func (s *serviceImpl) Schedule(ctx context.Context, tx *sqlx.Tx, req dto.ScheduleRequest) (res dto.ScheduleResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.Schedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	now := timezone.Now()
	invitees := map[string]string{
		model.RoleProvider: model.NormalizeIdentity(req.Provider),
		model.RoleClient:   model.NormalizeIdentity(req.Client),
	}

	ticket := model.Ticket{
		ID:            uuid.NewString(),
		AppointmentID: req.AppointmentID,
		ScheduledAt:   req.ScheduledAt,
		Status:        model.StatusScheduled,
		Invitees:      pq.StringArray{invitees[model.RoleProvider], invitees[model.RoleClient]},
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  req.User,
			ModifiedBy: req.User,
		},
	}

	if err = s.ticketRepo.InsertTx(ctx, tx, ticket); err != nil {
		if isUniqueViolation(err) {
			return res, model.ErrAlreadyScheduled
		}

		log.Error().Err(err).Msg("failed to create session ticket")

		return res, fmt.Errorf("failed to create session ticket: %w", err)
	}

	res.Ticket = ticket
	res.Tokens = make(map[string]model.JoinToken, len(invitees))
	tokens := make([]model.JoinToken, 0, len(invitees))

	for _, role := range []string{model.RoleProvider, model.RoleClient} {
		signed, err := s.jwt.IssueMeetingToken(invitees[role], req.AppointmentID)
		if err != nil {
			log.Error().Err(err).Str("role", role).Msg("failed to issue meeting token")

			return res, fmt.Errorf("failed to issue meeting token: %w", err)
		}

		token := model.JoinToken{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			Role:      role,
			Subject:   invitees[role],
			Token:     signed,
			CreatedAt: now,
		}

		res.Tokens[role] = token
		tokens = append(tokens, token)
	}

	if err = s.tokenRepo.InsertBulkTx(ctx, tx, tokens); err != nil {
		log.Error().Err(err).Msg("failed to store join tokens")

		return res, fmt.Errorf("failed to store join tokens: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) Reschedule(ctx context.Context, tx *sqlx.Tx, appointmentID string, at time.Time) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.Reschedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.And(
		gDto.Filter{Table: model.TicketTableName, Field: model.FieldAppointmentID, Value: appointmentID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Table: model.TicketTableName, Field: model.FieldStatus, Value: model.StatusScheduled, Operator: gDto.FilterOperatorEq},
	)

	_, err = s.ticketRepo.UpdateTx(ctx, tx, map[string]any{
		model.FieldScheduledAt:   at,
		constant.FieldModifiedAt: timezone.Now(),
	}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to reschedule session ticket")

		return fmt.Errorf("failed to reschedule session ticket: %w", err)
	}

	return nil
}

func (s *serviceImpl) Release(ctx context.Context, tx *sqlx.Tx, appointmentID string) (res model.Ticket, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.Release")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err = s.ticketRepo.GetTx(ctx, tx, byAppointment(appointmentID), true)
	if err != nil {
		log.Error().Err(err).Msg("failed to get session ticket")

		return res, fmt.Errorf("failed to get session ticket: %w", failure.Unavailable(err))
	}

	if res.ID == constant.Empty {
		return res, nil
	}

	// join tokens and participants cascade with the ticket
	if err = s.ticketRepo.DeleteTx(ctx, tx, shared.FilterByID(res.ID, model.FieldID, model.TicketTableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete session ticket")

		return res, fmt.Errorf("failed to delete session ticket: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) Teardown(ctx context.Context, backendSessionID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.Teardown")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.backend.DeleteSession(ctx, backendSessionID); err != nil {
		log.Error().Err(err).Str("sessionID", backendSessionID).Msg("failed to tear down backend session")

		return fmt.Errorf("failed to tear down backend session: %w", err)
	}

	return nil
}

func (s *serviceImpl) RequestAdmission(ctx context.Context, appointmentID, requester string, now time.Time) (res dto.AdmissionResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.RequestAdmission")
	defer scope.End()
	defer scope.TraceIfError(err)

	ticket, err := s.ticketRepo.Get(ctx, byAppointment(appointmentID))
	if err != nil {
		log.Error().Err(err).Msg("failed to get session ticket")

		return res, fmt.Errorf("failed to get session ticket: %w", failure.Unavailable(err))
	}

	if ticket.ID == constant.Empty {
		return res, model.ErrNotScheduled
	}

	return s.admit(ctx, ticket, requester, now)
}

func (s *serviceImpl) Redeem(ctx context.Context, req dto.JoinRequest, now time.Time) (res dto.AdmissionResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.Redeem")
	defer scope.End()
	defer scope.TraceIfError(err)

	claims, err := s.jwt.ValidateMeetingToken(req.Token)
	if err != nil {
		log.Warn().Err(err).Msg("rejected meeting token")

		return res, model.ErrInvalidToken
	}

	if req.AppointmentID != constant.Empty && req.AppointmentID != claims.AppointmentID {
		return res, model.ErrNotScheduled
	}

	stored, err := s.tokenRepo.Get(ctx, gDto.And(gDto.Filter{
		Table: model.TokenTableName, Field: model.FieldToken, Value: req.Token, Operator: gDto.FilterOperatorEq,
	}))
	if err != nil {
		log.Error().Err(err).Msg("failed to get join token")

		return res, fmt.Errorf("failed to get join token: %w", failure.Unavailable(err))
	}

	if stored.ID == constant.Empty {
		return res, model.ErrNotScheduled
	}

	ticket, err := s.ticketRepo.Get(ctx, shared.FilterByID(stored.TicketID, model.FieldID, model.TicketTableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get session ticket")

		return res, fmt.Errorf("failed to get session ticket: %w", failure.Unavailable(err))
	}

	if ticket.ID == constant.Empty {
		return res, model.ErrNotScheduled
	}

	if ticket.AppointmentID != claims.AppointmentID || stored.Subject != model.NormalizeIdentity(claims.Email) {
		log.Warn().Str("appointmentID", claims.AppointmentID).Msg("meeting token does not match its roster entry")

		return res, model.ErrInvalidToken
	}

	return s.admit(ctx, ticket, claims.Email, now)
}

func (s *serviceImpl) GetTicket(ctx context.Context, appointmentID string) (res dto.TicketResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.GetTicket")
	defer scope.End()
	defer scope.TraceIfError(err)

	ticket, err := s.ticketRepo.Get(ctx, byAppointment(appointmentID))
	if err != nil {
		log.Error().Err(err).Msg("failed to get session ticket")

		return res, fmt.Errorf("failed to get session ticket: %w", failure.Unavailable(err))
	}

	if ticket.ID == constant.Empty {
		return res, model.ErrNotScheduled
	}

	caller := actor.FromContext(ctx)
	if !ticket.IsInvited(caller.Identity) && !caller.Is(constant.RoleSuperAdmin) {
		appointment, err := s.appointmentRepo.Get(ctx, shared.FilterByID(appointmentID, appointmentModel.FieldID, appointmentModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get appointment of session ticket")

			return res, fmt.Errorf("failed to get appointment: %w", failure.Unavailable(err))
		}

		if !appointment.Scope().Permits(caller) {
			return res, appointmentModel.ErrOutOfScope
		}
	}

	res.FromModel(ticket)

	return res, nil
}

// admit evaluates the roster and the admission window before touching any state.
func (s *serviceImpl) admit(ctx context.Context, ticket model.Ticket, requester string, now time.Time) (dto.AdmissionResult, error) {
	if !ticket.IsInvited(requester) {
		return dto.Denied(ticket.AppointmentID, model.ReasonNotInvited), nil
	}

	opensAt := ticket.AdmissionOpensAt(s.cfg.AdmissionLead())
	if now.Before(opensAt) {
		res := dto.Denied(ticket.AppointmentID, model.ReasonTooEarly)
		res.OpensAt = timezone.Format(opensAt, constant.DateFormat)

		return res, nil
	}

	if ticket.Started() {
		return s.join(ctx, ticket, requester)
	}

	return s.activate(ctx, ticket, requester)
}

type activation struct {
	ticket      model.Ticket
	session     chime.Session
	participant model.Participant
	created     bool
}

// activate starts the backend session at most once per ticket. Concurrent callers in this
// process share one attempt; callers on other replicas serialise on the ticket row lock.
func (s *serviceImpl) activate(ctx context.Context, ticket model.Ticket, requester string) (dto.AdmissionResult, error) {
	value, err, _ := s.activations.Do(ticket.ID, func() (any, error) {
		return s.start(context.WithoutCancel(ctx), ticket.ID, requester)
	})
	if err != nil {
		return dto.AdmissionResult{}, err
	}

	started, _ := value.(activation)

	if started.created && started.participant.Identity == model.NormalizeIdentity(requester) {
		return dto.Granted(started.ticket.AppointmentID, started.session, started.participant), nil
	}

	return s.join(ctx, started.ticket, requester)
}

func (s *serviceImpl) start(ctx context.Context, ticketID, requester string) (res activation, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.start")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = s.ticketRepo.WithTx(ctx, func(tx *sqlx.Tx) error {
		ticket, err := s.ticketRepo.GetTx(ctx, tx, shared.FilterByID(ticketID, model.FieldID, model.TicketTableName), true)
		if err != nil {
			return fmt.Errorf("failed to lock session ticket: %w", failure.Unavailable(err))
		}

		if ticket.ID == constant.Empty {
			return model.ErrNotScheduled
		}

		res.ticket = ticket

		if ticket.Started() {
			return nil
		}

		// the ticket id doubles as the backend idempotency key, so a retry after a failed commit
		// gets the same session back
		session, first, err := s.backend.CreateSession(ctx, ticket.ID, requester)
		if err != nil {
			return fmt.Errorf("failed to create backend session: %w", err)
		}

		now := timezone.Now()

		affected, err := s.ticketRepo.UpdateTx(ctx, tx, map[string]any{
			model.FieldStatus:           model.StatusStarted,
			model.FieldBackendSessionID: session.ID,
			constant.FieldModifiedAt:    now,
		}, gDto.And(
			gDto.Filter{Table: model.TicketTableName, Field: model.FieldID, Value: ticket.ID, Operator: gDto.FilterOperatorEq},
			gDto.Filter{Table: model.TicketTableName, Field: model.FieldStatus, Value: model.StatusScheduled, Operator: gDto.FilterOperatorEq},
		))
		if err != nil {
			return fmt.Errorf("failed to mark session ticket started: %w", failure.Unavailable(err))
		}

		if affected == 0 {
			return failure.Unavailable(errActivationLost)
		}

		participant := newParticipant(ticket, session.ID, requester, first, now)
		if err = s.participantRepo.InsertTx(ctx, tx, participant); err != nil {
			return fmt.Errorf("failed to store participant: %w", failure.Unavailable(err))
		}

		_, err = s.appointmentRepo.UpdateTx(ctx, tx, map[string]any{
			appointmentModel.FieldBackendSessionID: session.ID,
			appointmentModel.FieldCallingEnabled:   true,
			constant.FieldModifiedAt:               now,
		}, shared.FilterByID(ticket.AppointmentID, appointmentModel.FieldID, appointmentModel.TableName))
		if err != nil {
			return fmt.Errorf("failed to stamp appointment: %w", failure.Unavailable(err))
		}

		ticket.Status = model.StatusStarted
		ticket.BackendSessionID = sql.NullString{String: session.ID, Valid: true}

		res = activation{ticket: ticket, session: session, participant: participant, created: true}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("ticketID", ticketID).Msg("failed to start session")

		return res, err
	}

	if res.created {
		log.Info().Str("appointmentID", res.ticket.AppointmentID).Str("sessionID", res.session.ID).Msg("session started")

		go kafka.Publish(context.WithoutCancel(ctx), s.kafka, s.cfg.Kafka.Topics.Session, res.ticket.AppointmentID, constant.EventSessionStarted, map[string]string{
			"appointment_id": res.ticket.AppointmentID,
			"session_id":     res.session.ID,
			"started_by":     model.NormalizeIdentity(requester),
		})
	}

	return res, nil
}

// join registers requester in the running session, reusing a stored registration when present.
func (s *serviceImpl) join(ctx context.Context, ticket model.Ticket, requester string) (res dto.AdmissionResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".session.join")
	defer scope.End()
	defer scope.TraceIfError(err)

	sessionID := ticket.BackendSessionID.String

	session, err := s.backend.GetSession(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("failed to get backend session")

		return res, fmt.Errorf("failed to get backend session: %w", err)
	}

	participant, err := s.participant(ctx, sessionID, requester)
	if err != nil {
		return res, err
	}

	if participant.ID != constant.Empty {
		return dto.Granted(ticket.AppointmentID, session, participant), nil
	}

	registered, err := s.backend.RegisterParticipant(ctx, sessionID, requester)
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("failed to register participant")

		return res, fmt.Errorf("failed to register participant: %w", err)
	}

	participant = newParticipant(ticket, sessionID, requester, registered, timezone.Now())

	if err = s.participantRepo.Insert(ctx, participant); err != nil {
		if !isUniqueViolation(err) {
			log.Error().Err(err).Msg("failed to store participant")

			return res, fmt.Errorf("failed to store participant: %w", failure.Unavailable(err))
		}

		// a parallel join by the same requester won; hand back its registration
		if participant, err = s.participant(ctx, sessionID, requester); err != nil {
			return res, err
		}
	}

	return dto.Granted(ticket.AppointmentID, session, participant), nil
}

func (s *serviceImpl) participant(ctx context.Context, sessionID, requester string) (model.Participant, error) {
	participant, err := s.participantRepo.Get(ctx, gDto.And(
		gDto.Filter{Table: model.ParticipantTableName, Field: model.FieldSessionID, Value: sessionID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Table: model.ParticipantTableName, Field: model.FieldIdentity, Value: model.NormalizeIdentity(requester), Operator: gDto.FilterOperatorEq},
	))
	if err != nil {
		log.Error().Err(err).Msg("failed to get participant")

		return participant, fmt.Errorf("failed to get participant: %w", failure.Unavailable(err))
	}

	return participant, nil
}

func newParticipant(ticket model.Ticket, sessionID, requester string, registered chime.Participant, now time.Time) model.Participant {
	return model.Participant{
		ID:             uuid.NewString(),
		TicketID:       ticket.ID,
		SessionID:      sessionID,
		Identity:       model.NormalizeIdentity(requester),
		ParticipantID:  registered.ID,
		ExternalUserID: registered.ExternalUserID,
		JoinToken:      registered.JoinToken,
		CreatedAt:      now,
	}
}

func byAppointment(appointmentID string) gDto.FilterGroup {
	return shared.FilterByID(appointmentID, model.FieldAppointmentID, model.TicketTableName)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == constant.PqErrorCodeUniqueViolation
}
