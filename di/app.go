package di

import (
	"marina/infras/kafka"
	"marina/infras/otel"
	notificationService "marina/internal/domains/notification/service"
	"marina/transport/http"
)

// App holds the long running parts of the service.
type App struct {
	HTTP       *http.HTTP
	Dispatcher notificationService.Dispatcher
	Producer   kafka.Producer
	Otel       otel.Otel
}
