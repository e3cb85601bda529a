package router

import (
	"github.com/go-chi/chi/v5"

	"teleconsult/internal/handlers/appointment"
	"teleconsult/internal/handlers/reminder"
	"teleconsult/internal/handlers/session"
	"teleconsult/transport/http/middleware"
)

type DomainHandlers struct {
	Appointment appointment.Handler
	Session     session.Handler
	Reminder    reminder.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey, r.AuthRole.Auth, r.AuthRole.RBAC)

		r.DomainHandlers.Appointment.Router(routerGroup)
		r.DomainHandlers.Session.Router(routerGroup)
		r.DomainHandlers.Reminder.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
	}
}
