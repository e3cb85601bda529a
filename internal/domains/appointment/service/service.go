package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Appointment=MockAppointmentService

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/kafka"
	"teleconsult/infras/otel"
	"teleconsult/infras/s3"
	"teleconsult/internal/domains/appointment/model"
	"teleconsult/internal/domains/appointment/model/dto"
	"teleconsult/internal/domains/appointment/repository"
	clientService "teleconsult/internal/domains/client/service"
	notificationModel "teleconsult/internal/domains/notification/model"
	notificationService "teleconsult/internal/domains/notification/service"
	sessionModel "teleconsult/internal/domains/session/model"
	sessionDto "teleconsult/internal/domains/session/model/dto"
	sessionService "teleconsult/internal/domains/session/service"
	"teleconsult/shared"
	"teleconsult/shared/actor"
	"teleconsult/shared/cache"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/failure"
	"teleconsult/shared/lock"
	"teleconsult/shared/timezone"
)

const (
	cacheGetAppointment    = "appointment:get"
	cacheGetAllAppointment = "appointment:gets"
	cacheCountAppointment  = "appointment:count"

	documentDirectory = "appointments"
	maxDocumentSize   = 10 << 20
)

var allowedDocumentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

type Appointment interface {
	Create(ctx context.Context, req dto.CreateAppointmentRequest) (dto.CreateAppointmentResponse, error)
	Get(ctx context.Context, id string) (dto.AppointmentResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter dto.ListFilter) (dto.GetAppointmentsResponse, error)
	Update(ctx context.Context, req dto.UpdateAppointmentRequest, id string) error
	Delete(ctx context.Context, id string) (dto.DeleteAppointmentResponse, error)
	// HasConflict reports whether the buffered window collides with a live appointment in scope.
	HasConflict(ctx context.Context, window model.Window, scope model.Scope, excludeID string) (bool, error)
	Availability(ctx context.Context, req dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	AttachDocument(ctx context.Context, id string, document dto.Document) (dto.DocumentResponse, error)
}

type serviceImpl struct {
	repo     repository.Appointment
	clients  clientService.Resolver
	sessions sessionService.Session
	notifier notificationService.Dispatcher
	locker   lock.Locker
	storage  s3.S3
	kafka    kafka.Client
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Appointment,
	clients clientService.Resolver,
	sessions sessionService.Session,
	notifier notificationService.Dispatcher,
	locker lock.Locker,
	storage s3.S3,
	kafka kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Appointment {
	return &serviceImpl{
		repo:     repo,
		clients:  clients,
		sessions: sessions,
		notifier: notifier,
		locker:   locker,
		storage:  storage,
		kafka:    kafka,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAppointmentRequest) (res dto.CreateAppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	caller := actor.FromContext(ctx)
	applyActorDefaults(&req, caller)

	appointment, err := req.ToModel(caller.Identity)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse appointment request")

		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date/time format: %v", err)) //nolint:wrapcheck
	}

	if !appointment.Window().Valid() {
		return res, model.ErrInvalidWindow
	}

	if appointment.ProviderEmail == constant.Empty && appointment.DepartmentID == constant.Empty {
		return res, failure.BadRequestFromString("provider_email or department_id is required") //nolint:wrapcheck
	}

	if err = authorize(caller, appointment.Scope()); err != nil {
		return res, err
	}

	client, err := s.clients.Resolve(ctx, clientService.Contact{
		OrgID: appointment.OrgID,
		Name:  appointment.ClientName,
		Email: appointment.ClientEmail,
		Phone: appointment.ClientPhone,
	}, caller.Identity)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve client")

		return res, fmt.Errorf("failed to resolve client: %w", err)
	}

	appointment.ClientID = dto.NullString(client.ID)
	appointment.ClientMRN = client.MRN

	var scheduled sessionDto.ScheduleResult

	conflictScope := appointment.Scope().Narrowest()

	err = s.locker.WithLock(ctx, conflictScope.LockKey(), func(ctx context.Context) error {
		if err := s.ensureFree(ctx, appointment.Window(), conflictScope, constant.Empty); err != nil {
			return err
		}

		return s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.repo.InsertTx(ctx, tx, appointment); err != nil {
				return fmt.Errorf("failed to insert appointment: %w", failure.Unavailable(err))
			}

			if !appointment.CallingEnabled {
				return nil
			}

			scheduled, err = s.sessions.Schedule(ctx, tx, s.scheduleRequest(appointment, appointment.StartTime, caller.Identity))

			return err
		})
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create appointment")

		return res, fmt.Errorf("failed to create appointment: %w", err)
	}

	res.FromModel(appointment)
	res.SessionScheduled = scheduled.Ticket.ID != constant.Empty

	go func() {
		c := context.WithoutCancel(ctx)

		s.invalidate(c, constant.Empty)
		s.notify(c, s.message(appointment, notificationModel.KindConfirmation, appointment.ClientEmail, constant.Empty))
		s.invite(c, appointment, scheduled)
		kafka.Publish(c, s.kafka, s.cfg.Kafka.Topics.Appointment, appointment.ID, constant.EventAppointmentBooked, res.AppointmentResponse)
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	caller := actor.FromContext(ctx)
	cacheKey := shared.BuildCacheKey(cacheGetAppointment, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointment")

		return res, authorizeRead(caller, res)
	}

	appointment, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(appointment)

	if err = authorizeRead(caller, res); err != nil {
		return dto.AppointmentResponse{}, err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointment to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, listFilter dto.ListFilter) (res dto.GetAppointmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter, err := listScope(actor.FromContext(ctx), listFilter)
	if err != nil {
		return res, err
	}

	params.SortBy = fmt.Sprintf("%s.%s", model.TableName, model.FieldStartTime)
	params.SortDir = "DESC"

	if params.Limit <= 0 {
		params.Limit = constant.DefaultValueLimit
	}

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllAppointment, params, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointments")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count appointments")

		return res, fmt.Errorf("failed to count appointments: %w", failure.Unavailable(err))
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointments")

		return res, fmt.Errorf("failed to get appointments: %w", failure.Unavailable(err))
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointments to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateAppointmentRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.IsEmpty() {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	caller := actor.FromContext(ctx)

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err = authorize(caller, current.Scope()); err != nil {
		return err
	}

	window, moved, err := req.Window(current.Window())
	if err != nil {
		return failure.BadRequestFromString(fmt.Sprintf("invalid date/time format: %v", err)) //nolint:wrapcheck
	}

	if !window.Valid() {
		return model.ErrInvalidWindow
	}

	fields := shared.TransformFields(req, caller.Identity)
	if moved {
		fields[model.FieldStartTime] = window.Start
		fields[model.FieldEndTime] = window.End
	}

	cancelling := req.Status == model.StatusCancelled && current.Status != model.StatusCancelled
	reactivating := req.Status == model.StatusBooked && current.Status == model.StatusCancelled
	cancelled := cancelling || current.Status == model.StatusCancelled && !reactivating

	wantCalling := current.CallingEnabled
	if req.CallingEnabled != nil {
		wantCalling = *req.CallingEnabled
		fields[model.FieldCallingEnabled] = wantCalling
	}

	// a cancelled appointment holds no ticket, so it never keeps calling enabled
	if cancelled && (cancelling || wantCalling) {
		fields[model.FieldCallingEnabled] = false
	}

	hasTicket := current.CallingEnabled && current.Status != model.StatusCancelled
	enableCalling := wantCalling && !cancelled && (!current.CallingEnabled || reactivating)
	disableCalling := hasTicket && (cancelling || !wantCalling)

	var (
		scheduled sessionDto.ScheduleResult
		released  sessionModel.Ticket
	)

	mutate := func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
				return fmt.Errorf("failed to update appointment: %w", failure.Unavailable(err))
			}

			var err error

			switch {
			case enableCalling:
				scheduled, err = s.sessions.Schedule(ctx, tx, s.scheduleRequest(current, window.Start, caller.Identity))
			case disableCalling:
				released, err = s.sessions.Release(ctx, tx, id)
			case moved && hasTicket:
				err = s.sessions.Reschedule(ctx, tx, id, window.Start)
			}

			return err
		})
	}

	// booked windows stay conflict free
	if (moved && !cancelling) || reactivating {
		conflictScope := current.Scope().Narrowest()

		err = s.locker.WithLock(ctx, conflictScope.LockKey(), func(ctx context.Context) error {
			if err := s.ensureFree(ctx, window, conflictScope, id); err != nil {
				return err
			}

			return mutate(ctx)
		})
	} else {
		err = mutate(ctx)
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to update appointment")

		return fmt.Errorf("failed to update appointment: %w", err)
	}

	updated := current
	updated.StartTime, updated.EndTime = window.Start, window.End

	go func() {
		c := context.WithoutCancel(ctx)

		s.invalidate(c, id)
		s.invite(c, updated, scheduled)

		if released.Started() {
			if err := s.sessions.Teardown(c, released.BackendSessionID.String); err != nil {
				log.Error().Err(err).Str("appointmentID", id).Msg("failed to tear down released session")
			}
		}

		kafka.Publish(c, s.kafka, s.cfg.Kafka.Topics.Appointment, id, constant.EventAppointmentUpdated, map[string]any{
			"appointment_id": id,
			"fields":         slices.Sorted(maps.Keys(fields)),
		})
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (res dto.DeleteAppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	current, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if err = authorize(actor.FromContext(ctx), current.Scope()); err != nil {
		return res, err
	}

	var released sessionModel.Ticket

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error

		if released, err = s.sessions.Release(ctx, tx, id); err != nil {
			return err
		}

		if err := s.repo.DeleteTx(ctx, tx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to delete appointment: %w", failure.Unavailable(err))
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to delete appointment")

		return res, fmt.Errorf("failed to delete appointment: %w", err)
	}

	res.ID = id

	// the reservation is gone either way; a failed teardown is only reported
	if released.Started() {
		if err := s.sessions.Teardown(context.WithoutCancel(ctx), released.BackendSessionID.String); err != nil {
			res.Warning = fmt.Sprintf("appointment deleted but the video session could not be closed: %v", err)
		}
	}

	go func() {
		c := context.WithoutCancel(ctx)

		s.invalidate(c, id)

		if current.DocumentURL != constant.Empty {
			if err := s.storage.Delete(c, s.storage.ObjectKeyFromURL(current.DocumentURL)); err != nil {
				log.Error().Err(err).Str("appointmentID", id).Msg("failed to delete appointment document")
			}
		}

		kafka.Publish(c, s.kafka, s.cfg.Kafka.Topics.Appointment, id, constant.EventAppointmentCancelled, map[string]string{
			"appointment_id": id,
			"warning":        res.Warning,
		})
	}()

	return res, nil
}

func (s *serviceImpl) HasConflict(ctx context.Context, window model.Window, scope model.Scope, excludeID string) (conflict bool, err error) {
	ctx, span := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.HasConflict")
	defer span.End()
	defer span.TraceIfError(err)

	conflicts, err := s.overlapping(ctx, window, scope, excludeID)

	return len(conflicts) > 0, err
}

func (s *serviceImpl) Availability(ctx context.Context, req dto.AvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	window, err := req.Window()
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid date/time format: %v", err)) //nolint:wrapcheck
	}

	if !window.Valid() {
		return res, model.ErrInvalidWindow
	}

	conflictScope := model.Scope{ProviderEmail: req.ProviderEmail, DepartmentID: req.DepartmentID}.Narrowest()

	conflicts, err := s.overlapping(ctx, window, conflictScope, req.ExcludeID)
	if err != nil {
		return res, err
	}

	res.Available = len(conflicts) == 0
	res.Conflicts = make([]dto.AppointmentResponse, len(conflicts))

	for i, conflict := range conflicts {
		res.Conflicts[i].FromModel(conflict)
	}

	return res, nil
}

func (s *serviceImpl) AttachDocument(ctx context.Context, id string, document dto.Document) (res dto.DocumentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".appointment.AttachDocument")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !slices.Contains(allowedDocumentTypes, document.ContentType) {
		return res, failure.BadRequestFromString("document must be a PDF, JPEG or PNG file") //nolint:wrapcheck
	}

	if document.Size <= 0 || document.Size > maxDocumentSize {
		return res, failure.BadRequestFromString("document must be between 1 byte and 10 MB") //nolint:wrapcheck
	}

	caller := actor.FromContext(ctx)

	current, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if err = authorize(caller, current.Scope()); err != nil {
		return res, err
	}

	documentURL, err := s.storage.Upload(ctx, documentDirectory+"/"+id, document.Name, document.ContentType, document.Body, document.Size)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload appointment document")

		return res, fmt.Errorf("failed to upload appointment document: %w", err)
	}

	_, err = s.repo.Update(ctx, map[string]any{
		model.FieldDocumentURL:   documentURL,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: caller.Identity,
	}, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to store appointment document")

		return res, fmt.Errorf("failed to store appointment document: %w", failure.Unavailable(err))
	}

	go func() {
		c := context.WithoutCancel(ctx)

		s.invalidate(c, id)

		if current.DocumentURL != constant.Empty && current.DocumentURL != documentURL {
			if err := s.storage.Delete(c, s.storage.ObjectKeyFromURL(current.DocumentURL)); err != nil {
				log.Error().Err(err).Str("appointmentID", id).Msg("failed to delete replaced document")
			}
		}
	}()

	return dto.DocumentResponse{ID: id, DocumentURL: documentURL}, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment")

		return appointment, fmt.Errorf("failed to get appointment: %w", failure.Unavailable(err))
	}

	if appointment.ID == constant.Empty {
		return appointment, model.ErrNotFound
	}

	return appointment, nil
}

func (s *serviceImpl) overlapping(ctx context.Context, window model.Window, scope model.Scope, excludeID string) ([]model.Appointment, error) {
	conflicts, err := s.repo.Overlapping(ctx, window.Buffered(s.cfg.ConflictBuffer()), scope, excludeID)
	if err != nil {
		log.Error().Err(err).Msg("failed to check appointment conflicts")

		return nil, fmt.Errorf("failed to check appointment conflicts: %w", failure.Unavailable(err))
	}

	return conflicts, nil
}

func (s *serviceImpl) ensureFree(ctx context.Context, window model.Window, scope model.Scope, excludeID string) error {
	conflicts, err := s.overlapping(ctx, window, scope, excludeID)
	if err != nil {
		return err
	}

	if len(conflicts) > 0 {
		log.Info().Str("conflictID", conflicts[0].ID).Msg("appointment slot taken")

		return model.ErrSlotConflict
	}

	return nil
}

func (s *serviceImpl) scheduleRequest(appointment model.Appointment, at time.Time, user string) sessionDto.ScheduleRequest {
	return sessionDto.ScheduleRequest{
		AppointmentID: appointment.ID,
		ScheduledAt:   at,
		Provider:      appointment.ProviderEmail,
		Client:        appointment.ClientEmail,
		User:          user,
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if id != constant.Empty {
		if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetAppointment, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete appointment from cache")
		}
	}

	shared.InvalidateCaches(ctx, s.cache, cacheGetAllAppointment)
	shared.InvalidateCaches(ctx, s.cache, cacheCountAppointment)
}

// invite mails each invitee their join link. Failures are logged only.
func (s *serviceImpl) invite(ctx context.Context, appointment model.Appointment, scheduled sessionDto.ScheduleResult) {
	for _, token := range scheduled.Tokens {
		link := fmt.Sprintf("%s/join-meeting?token=%s", strings.TrimRight(s.cfg.App.FrontendURL, "/"), url.QueryEscape(token.Token))

		s.notify(ctx, s.message(appointment, notificationModel.KindInvitation, token.Subject, link))
	}
}

func (s *serviceImpl) notify(ctx context.Context, msg notificationModel.Message) {
	if msg.Recipient == constant.Empty {
		log.Warn().Str("kind", string(msg.Kind)).Msg("skipping notification without recipient")

		return
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("failed to send notification")
	}
}

func (s *serviceImpl) message(appointment model.Appointment, kind notificationModel.Kind, recipient, meetingURL string) notificationModel.Message {
	subjects := map[notificationModel.Kind]string{
		notificationModel.KindInvitation:   notificationModel.SubjectInvitation,
		notificationModel.KindConfirmation: notificationModel.SubjectConfirmation,
		notificationModel.KindReminder:     notificationModel.SubjectReminder,
	}

	return notificationModel.Message{
		Kind:      kind,
		Recipient: recipient,
		Subject:   subjects[kind],
		Variables: Variables(appointment, meetingURL),
	}
}

// Variables are the template values shared by every appointment notification.
func Variables(appointment model.Appointment, meetingURL string) map[string]string {
	packageName := appointment.PackageInfo.String("name")
	if packageName == constant.Empty {
		packageName = "N/A"
	}

	return map[string]string{
		notificationModel.VarClientName:      appointment.ClientName,
		notificationModel.VarProviderName:    appointment.ProviderName,
		notificationModel.VarAppointmentDate: timezone.Format(appointment.StartTime, constant.DayFormat),
		notificationModel.VarAppointmentTime: timezone.Format(appointment.StartTime, constant.HourFormat),
		notificationModel.VarPackageName:     packageName,
		notificationModel.VarMeetingURL:      meetingURL,
	}
}
