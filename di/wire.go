//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"agrirent/config"
	"agrirent/infras/jwt"
	"agrirent/infras/kafka"
	"agrirent/infras/marketplace"
	"agrirent/infras/otel"
	"agrirent/infras/redis"
	"agrirent/permissions"
	"agrirent/shared/cache"
	"agrirent/shared/clock"
	"agrirent/transport/http"
	"agrirent/transport/http/middleware"
	"agrirent/transport/http/router"

	authGateway "agrirent/internal/domains/auth/gateway"
	authService "agrirent/internal/domains/auth/service"
	bookingEvent "agrirent/internal/domains/booking/event"
	bookingGateway "agrirent/internal/domains/booking/gateway"
	bookingService "agrirent/internal/domains/booking/service"
	equipmentGateway "agrirent/internal/domains/equipment/gateway"
	equipmentService "agrirent/internal/domains/equipment/service"
	authHandler "agrirent/internal/handlers/auth"
	bookingHandler "agrirent/internal/handlers/booking"
	equipmentHandler "agrirent/internal/handlers/equipment"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	marketplace.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	clock.NewSystem,
)

var authDomain = wire.NewSet(
	authGateway.New,
	authService.New,
)

var equipmentDomain = wire.NewSet(
	equipmentGateway.New,
	equipmentService.New,
)

var bookingDomain = wire.NewSet(
	bookingGateway.New,
	bookingEvent.New,
	bookingService.New,
)

var domains = wire.NewSet(
	authDomain,
	equipmentDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	equipmentHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		provideCleanup,
		http.New,
	)

	return &http.HTTP{}
}
