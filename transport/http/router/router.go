package router

import (
	"marina/internal/handlers/booking"
	"marina/shared/failure"
	"marina/transport/http/middleware"
	"marina/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Booking booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthRole       middleware.AuthRole
}

func New(domainHandlers DomainHandlers, authRole middleware.AuthRole) Router {
	return Router{DomainHandlers: domainHandlers, AuthRole: authRole}
}

// SetupRoutes mounts the versioned API behind the API key, token and role checks.
// Unknown paths and methods answer in the same JSON envelope as the API.
func (r *Router) SetupRoutes(mux chi.Router) {
	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.WithError(w, failure.NotFound("route not found"))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.WithMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	mux.Route("/v1", func(v1 chi.Router) {
		v1.Use(r.AuthRole.APIKey, r.AuthRole.Auth, r.AuthRole.RBAC)

		r.DomainHandlers.Booking.Router(v1)
	})
}
