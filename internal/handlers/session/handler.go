package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"teleconsult/infras/otel"
	"teleconsult/internal/domains/session/model/dto"
	"teleconsult/internal/domains/session/service"
	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
	"teleconsult/shared/timezone"
	"teleconsult/shared/validator"
	"teleconsult/transport/http/response"
)

type Handler struct {
	service service.Session
	otel    otel.Otel
}

func New(service service.Session, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/sessions", func(routerGroup chi.Router) {
		routerGroup.Post("/join", handler.Join)
		routerGroup.Get("/{appointmentID}", handler.GetTicket)
		routerGroup.Post("/{appointmentID}/admission", handler.RequestAdmission)
	})
}

// RequestAdmission admits the authenticated caller into the appointment's video session.
// @Summary Request admission
// @Description Starts the session on first admission or joins the running one. Denials (not invited, too early) return granted=false.
// @Tags Session
// @Produce json
// @Param appointmentID path string true "Appointment ID"
// @Success 200 {object} response.Data[dto.AdmissionResult]
// @Failure 404 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/sessions/{appointmentID}/admission [post]
// @Security BearerAuth
func (handler *Handler) RequestAdmission(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RequestAdmission")
	defer scope.End()

	appointmentID := chi.URLParam(request, constant.RequestParamAppointmentID)

	res, err := handler.service.RequestAdmission(ctx, appointmentID, actor.FromContext(ctx).Identity, timezone.Now())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to request admission")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// Join redeems a meeting token from an invitation link.
// @Summary Join with a meeting token
// @Description Resolves the invitation token and applies the same admission rules. No login required.
// @Tags Session
// @Accept json
// @Produce json
// @Param request body dto.JoinRequest true "Join Request"
// @Success 200 {object} response.Data[dto.AdmissionResult]
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 503 {object} response.Error
// @Router /v1/sessions/join [post]
func (handler *Handler) Join(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Join")
	defer scope.End()

	req := dto.JoinRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Redeem(ctx, req, timezone.Now())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to redeem meeting token")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetTicket returns the session ticket of an appointment.
// @Summary Get session ticket
// @Tags Session
// @Produce json
// @Param appointmentID path string true "Appointment ID"
// @Success 200 {object} response.Data[dto.TicketResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/sessions/{appointmentID} [get]
// @Security BearerAuth
func (handler *Handler) GetTicket(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTicket")
	defer scope.End()

	res, err := handler.service.GetTicket(ctx, chi.URLParam(request, constant.RequestParamAppointmentID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get session ticket")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
