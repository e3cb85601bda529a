package reminder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"teleconsult/infras/otel"
	"teleconsult/internal/domains/reminder/service"
	"teleconsult/shared/constant"
	"teleconsult/shared/timezone"
	"teleconsult/transport/http/response"
)

type Handler struct {
	service service.Reminder
	otel    otel.Otel
}

func New(service service.Reminder, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/internal/reminders/scan", handler.Scan)
}

// Scan runs one reminder sweep for an external scheduler.
// @Summary Run a reminder sweep
// @Description Sends reminders for booked appointments starting within the reminder window.
// @Tags Internal
// @Produce json
// @Success 200 {object} response.Data[dto.SweepResult]
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/internal/reminders/scan [post]
// @Security ApiKeyAuth
func (handler *Handler) Scan(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReminderScan")
	defer scope.End()

	res, err := handler.service.Sweep(ctx, timezone.Now())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to run reminder sweep")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
