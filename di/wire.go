//go:build wireinject
// +build wireinject

package di

import (
	"marina/config"
	"marina/infras/jwt"
	"marina/infras/kafka"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/infras/redis"
	"marina/infras/s3"
	"marina/permissions"
	"marina/shared/cache"
	"marina/transport/http"
	"marina/transport/http/middleware"
	"marina/transport/http/router"

	boatRepository "marina/internal/domains/boat/repository"
	bookingRepository "marina/internal/domains/booking/repository"
	bookingService "marina/internal/domains/booking/service"
	notificationRepository "marina/internal/domains/notification/repository"
	notificationService "marina/internal/domains/notification/service"
	userRepository "marina/internal/domains/user/repository"
	bookingHandler "marina/internal/handlers/booking"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	postgres.NewTransactor,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingRepository.NewLineItem,
	bookingRepository.NewHistory,
	boatRepository.New,
	userRepository.New,
	bookingService.New,
)

var notificationDomain = wire.NewSet(
	notificationRepository.New,
	notificationService.New,
)

var domains = wire.NewSet(
	bookingDomain,
	notificationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	bookingHandler.New,
	router.New,
)

func InitializeService() (*App, error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		wire.Bind(new(http.HealthChecker), new(*postgres.Connection)),
		wire.Struct(new(App), "*"),
	)

	return &App{}, nil
}
