package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"marina/config"
	otelMocks "marina/infras/otel/mocks"
	cacheMocks "marina/shared/cache/mocks"
	"marina/shared/constant"
	"marina/transport/http/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		enable     bool
		setupMock  func(cache *cacheMocks.MockRedisCache)
		wantCode   int
		wantRemain string
	}{
		{
			name:     "disabled",
			enable:   false,
			wantCode: http.StatusOK,
		},
		{
			name:   "under the limit",
			enable: true,
			setupMock: func(cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Increment(gomock.Any(), "limiter:192.0.2.10:tester", 60).Return(int64(1), nil)
			},
			wantCode:   http.StatusOK,
			wantRemain: "1",
		},
		{
			name:   "over the limit",
			enable: true,
			setupMock: func(cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(3), nil)
			},
			wantCode:   http.StatusTooManyRequests,
			wantRemain: "0",
		},
		{
			name:   "redis down lets the request through",
			enable: true,
			setupMock: func(cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(0), errors.New("dial tcp: refused"))
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := cacheMocks.NewMockRedisCache(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(cache)
			}

			cfg := &config.Config{}
			cfg.App.RateLimiter.Enable = tt.enable
			cfg.App.RateLimiter.MaxRequests = 2
			cfg.App.RateLimiter.WindowSeconds = 60

			handler := middleware.NewAppMiddleware(otelMocks.NewOtel(), cfg, cache).RateLimit()(okHandler())

			request := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
			request.RemoteAddr = "192.0.2.10:5123"
			request.Header.Set(constant.RequestHeaderUserAgent, "tester")

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantCode, recorder.Code)
			assert.Equal(t, tt.wantRemain, recorder.Header().Get(constant.RequestHeaderRateLimitRemaining))
		})
	}
}

func TestRecover(t *testing.T) {
	appMiddleware := middleware.NewAppMiddleware(otelMocks.NewOtel(), &config.Config{}, nil)

	handler := appMiddleware.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write in handler")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), constant.ResponseErrorInternal)
	assert.NotContains(t, recorder.Body.String(), "nil map")
}

func TestShutdownGuard(t *testing.T) {
	draining := false
	handler := middleware.ShutdownGuard(func() bool { return draining })(okHandler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	draining = true

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "close", recorder.Header().Get("Connection"))
}
