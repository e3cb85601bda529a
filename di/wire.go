//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"teleconsult/config"
	"teleconsult/infras/aws"
	"teleconsult/infras/chime"
	"teleconsult/infras/jwt"
	"teleconsult/infras/otel"
	"teleconsult/infras/s3"
	"teleconsult/infras/ses"
	"teleconsult/permissions"
	"teleconsult/shared/cache"
	"teleconsult/shared/lock"
	"teleconsult/transport/http"
	"teleconsult/transport/http/middleware"
	"teleconsult/transport/http/router"

	appointmentRepository "teleconsult/internal/domains/appointment/repository"
	appointmentService "teleconsult/internal/domains/appointment/service"
	clientRepository "teleconsult/internal/domains/client/repository"
	clientService "teleconsult/internal/domains/client/service"
	notificationService "teleconsult/internal/domains/notification/service"
	reminderService "teleconsult/internal/domains/reminder/service"
	sessionRepository "teleconsult/internal/domains/session/repository"
	sessionService "teleconsult/internal/domains/session/service"
	appointmentHandler "teleconsult/internal/handlers/appointment"
	reminderHandler "teleconsult/internal/handlers/reminder"
	sessionHandler "teleconsult/internal/handlers/session"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgresConnection,
	otel.New,
	redisClient,
	jwt.New,
	aws.New,
	chime.New,
	ses.New,
	s3.New,
	kafkaClient,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.New,
)

var clientDomain = wire.NewSet(
	clientRepository.New,
	clientService.New,
)

var sessionDomain = wire.NewSet(
	sessionRepository.NewTicket,
	sessionRepository.NewParticipant,
	sessionRepository.NewToken,
	sessionService.New,
)

var appointmentDomain = wire.NewSet(
	appointmentRepository.New,
	appointmentService.New,
)

var domains = wire.NewSet(
	clientDomain,
	sessionDomain,
	appointmentDomain,
	notificationService.New,
	reminderService.New,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	appointmentHandler.New,
	sessionHandler.New,
	reminderHandler.New,
	router.New,
)

func InitializeService() (*http.HTTP, func()) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}, nil
}

func InitializeReminder() (*reminderService.Runner, func()) {
	wire.Build(
		config.Get,
		postgresConnection,
		otel.New,
		aws.New,
		ses.New,
		kafkaClient,
		appointmentRepository.New,
		notificationService.New,
		reminderService.New,
		reminderRunner,
	)

	return &reminderService.Runner{}, nil
}
