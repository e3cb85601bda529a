package appointment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"teleconsult/infras/otel"
	"teleconsult/internal/domains/appointment/model/dto"
	"teleconsult/internal/domains/appointment/service"
	"teleconsult/shared"
	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/failure"
	"teleconsult/shared/validator"
	"teleconsult/transport/http/response"
)

const (
	queryFrom       = "from"
	queryTo         = "to"
	queryProvider   = "provider"
	queryDepartment = "department"
	queryStatus     = "status"
	queryCalling    = "calling_enabled"
	queryExclude    = "exclude"
	queryStart      = "start"
	queryEnd        = "end"
)

type Handler struct {
	service service.Appointment
	otel    otel.Otel
}

func New(service service.Appointment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/appointments", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateAppointment)
		routerGroup.Get("/", handler.GetAppointments)
		routerGroup.Get("/availability", handler.GetAvailability)
		routerGroup.Get("/{id}", handler.GetAppointmentByID)
		routerGroup.Patch("/{id}", handler.UpdateAppointment)
		routerGroup.Delete("/{id}", handler.DeleteAppointment)
		routerGroup.Post("/{id}/document", handler.AttachDocument)
	})
}

// CreateAppointment books a new appointment.
// @Summary Book an appointment
// @Description Books a provider or department slot after checking it against buffered conflicts.
// @Tags Appointment
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} response.Data[dto.CreateAppointmentResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/appointments [post]
// @Security BearerAuth
func (handler *Handler) CreateAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateAppointment")
	defer scope.End()

	req := dto.CreateAppointmentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create appointment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Appointment booked by " + actor.FromContext(ctx).Identity)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetAppointments lists the appointments visible to the caller.
// @Summary List appointments
// @Description Lists appointments in the caller's scope, newest start first.
// @Tags Appointment
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param provider query string false "Provider email"
// @Param department query string false "Department ID"
// @Param status query string false "Status (booked, cancelled)"
// @Param calling_enabled query bool false "Only appointments with (true) or without (false) a video session"
// @Success 200 {object} response.Data[dto.GetAppointmentsResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/appointments [get]
// @Security BearerAuth
func (handler *Handler) GetAppointments(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAppointments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	query := request.URL.Query()
	filter := dto.ListFilter{
		From:           query.Get(queryFrom),
		To:             query.Get(queryTo),
		ProviderEmail:  query.Get(queryProvider),
		DepartmentID:   query.Get(queryDepartment),
		Status:         query.Get(queryStatus),
		CallingEnabled: shared.ConvertStringToBool(query.Get(queryCalling)),
	}

	res, err := handler.service.GetAll(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get appointments")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetAvailability checks a window against existing appointments.
// @Summary Check availability
// @Description Reports whether the buffered window is free for the provider or department.
// @Tags Appointment
// @Produce json
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Param provider query string false "Provider email"
// @Param department query string false "Department ID"
// @Param exclude query string false "Appointment ID to ignore"
// @Success 200 {object} response.Data[dto.AvailabilityResponse]
// @Failure 400 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/appointments/availability [get]
// @Security BearerAuth
func (handler *Handler) GetAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	query := request.URL.Query()
	req := dto.AvailabilityRequest{
		StartTime:     query.Get(queryStart),
		EndTime:       query.Get(queryEnd),
		ProviderEmail: query.Get(queryProvider),
		DepartmentID:  query.Get(queryDepartment),
		ExcludeID:     query.Get(queryExclude),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Availability(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetAppointmentByID retrieves one appointment.
// @Summary Get an appointment
// @Tags Appointment
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Data[dto.AppointmentResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/appointments/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetAppointmentByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAppointmentByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get appointment by ID")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// UpdateAppointment patches an appointment, re-checking conflicts when the window moves.
// @Summary Update an appointment
// @Tags Appointment
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.UpdateAppointmentRequest true "Update Appointment Request"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/appointments/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateAppointment")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.UpdateAppointmentRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update appointment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Appointment updated by " + actor.FromContext(ctx).Identity)

	response.WithMessage(writer, http.StatusOK, "Appointment updated successfully")
}

// DeleteAppointment removes an appointment and releases its session.
// @Summary Delete an appointment
// @Description Deletes the appointment. A failed video session teardown is reported as a warning.
// @Tags Appointment
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Data[dto.DeleteAppointmentResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/appointments/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteAppointment")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Delete(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete appointment")

		response.WithError(writer, err)

		return
	}

	if res.Warning != "" {
		scope.AddEvent(res.Warning)
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// AttachDocument uploads a document for an appointment.
// @Summary Attach a document
// @Tags Appointment
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Appointment ID"
// @Param file formData file true "PDF, JPEG or PNG up to 10 MB"
// @Success 200 {object} response.Data[dto.DocumentResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/appointments/{id}/document [post]
// @Security BearerAuth
func (handler *Handler) AttachDocument(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AttachDocument")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	request.Body = http.MaxBytesReader(writer, request.Body, constant.RequestMaxMemory+1<<20)

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		err = failure.BadRequest(err)
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	file, header, err := request.FormFile(constant.FormFile)
	if err != nil {
		err = failure.BadRequest(err)
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}
	defer file.Close()

	res, err := handler.service.AttachDocument(ctx, id, dto.Document{
		Name:        header.Filename,
		ContentType: header.Header.Get(constant.RequestHeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to attach document")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
