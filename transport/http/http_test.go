package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"marina/config"
	jwtMocks "marina/infras/jwt/mocks"
	otelMocks "marina/infras/otel/mocks"
	bookingMocks "marina/internal/domains/booking/mocks"
	bookingHandler "marina/internal/handlers/booking"
	"marina/permissions"
	transport "marina/transport/http"
	"marina/transport/http/middleware"
	"marina/transport/http/router"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newServer(t *testing.T, health transport.HealthChecker) (*bookingMocks.MockBookingService, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	bookings := bookingMocks.NewMockBookingService(ctrl)
	tracer := otelMocks.NewOtel()

	cfg := &config.Config{}
	cfg.App.Name = "marina-test"

	authRole := middleware.NewAuthRoleMiddleware(jwtMocks.NewMockJWT(ctrl), tracer, permissions.Get(), cfg)
	routes := router.New(router.DomainHandlers{Booking: bookingHandler.New(bookings, tracer)}, authRole)

	server := transport.New(cfg, routes, middleware.NewAppMiddleware(tracer, cfg, nil), health)

	return bookings, server.Handler()
}

func TestHTTP_Health(t *testing.T) {
	tests := []struct {
		name     string
		ping     error
		wantCode int
	}{
		{name: "database reachable", wantCode: http.StatusOK},
		{name: "database down", ping: errors.New("dial tcp: connection refused"), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, handler := newServer(t, pingFunc(func(context.Context) error { return tt.ping }))

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}

func TestHTTP_PublicAvailabilityThroughFullStack(t *testing.T) {
	bookings, handler := newServer(t, nil)

	bookings.EXPECT().IsAvailable(gomock.Any(), "boat-1", "2025-09-01").Return(true, nil)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/boats/boat-1/availability?date=2025-09-01", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"available":true`)
}

func TestHTTP_ProtectedRouteNeedsToken(t *testing.T) {
	_, handler := newServer(t, nil)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHTTP_UnknownRoute(t *testing.T) {
	_, handler := newServer(t, nil)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v2/bookings", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, recorder.Body.String())
}
