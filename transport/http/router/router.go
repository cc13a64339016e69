package router

import (
	"github.com/go-chi/chi/v5"

	"agrirent/internal/handlers/auth"
	"agrirent/internal/handlers/booking"
	"agrirent/internal/handlers/equipment"
	"agrirent/transport/http/middleware"
)

type DomainHandlers struct {
	Auth      auth.Handler
	Equipment equipment.Handler
	Booking   booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.AuthRole.APIKey)
		routerGroup.Use(r.AuthRole.Auth)
		routerGroup.Use(r.AuthRole.RBAC)

		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.Equipment.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthRole:       authRole,
	}
}
