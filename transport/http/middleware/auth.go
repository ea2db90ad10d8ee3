package middleware

import (
	"context"
	"errors"
	"marina/config"
	"marina/infras/jwt"
	"marina/infras/otel"
	"marina/permissions"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type trustedKey struct{}

// SystemActorID is recorded as the actor of changes made through the API key.
const SystemActorID = "system"

type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

// AuthRole is mounted in the order APIKey, Auth, RBAC.
type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

// APIKey lets internal callers through without a token. They act as the system role.
// Requests without the header fall through to Auth.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "middleware.api_key")
		defer scope.End()

		key := request.Header.Get(constant.RequestHeaderAPIKey)
		if key == "" {
			next.ServeHTTP(writer, request)

			return
		}

		if m.cfg.App.APIKey == "" || key != m.cfg.App.APIKey {
			m.reject(writer, scope, failure.ForbiddenError)

			return
		}

		scope.SetAttribute("auth.source", "api_key")

		ctx := context.WithValue(request.Context(), trustedKey{}, true)
		ctx = withActor(ctx, SystemActorID, constant.RoleSystem)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// Auth validates the bearer token and puts the caller's id and role on the context.
// Public routes and API key callers pass untouched.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "middleware.auth")
		defer scope.End()

		if trusted(request.Context()) || m.lookup(request).Skip {
			next.ServeHTTP(writer, request)

			return
		}

		token, err := jwt.ExtractTokenFromHeader(request.Header.Get(constant.RequestHeaderAuthorization))
		if err != nil {
			m.reject(writer, scope, failure.Unauthorized(err.Error()))

			return
		}

		claims, err := m.jwtService.ValidateAccessToken(token)
		if err != nil {
			m.reject(writer, scope, failure.Unauthorized(tokenMessage(err)))

			return
		}

		scope.SetAttribute("auth.role", claims.Role)

		next.ServeHTTP(writer, request.WithContext(withActor(request.Context(), claims.UserID, claims.Role)))
	})
}

// RBAC admits the caller only when their role is listed for the route. Routes missing
// from the permission table are refused.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "middleware.rbac")
		defer scope.End()

		if trusted(ctx) {
			next.ServeHTTP(writer, request)

			return
		}

		if m.permission == nil {
			m.reject(writer, scope, failure.ForbiddenError)

			return
		}

		role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
		permission := m.lookup(request)

		if !m.permission.Skip && !permission.Allows(role) {
			scope.SetAttributes(map[string]any{
				"auth.role":          role,
				"auth.allowed_roles": permission.Permissions,
			})
			m.reject(writer, scope, failure.ForbiddenError)

			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (m *authRoleImpl) lookup(request *http.Request) permissions.Permission {
	if m.permission == nil {
		return permissions.Permission{}
	}

	permission, _ := m.permission.Lookup(routePattern(request), request.Method)

	return permission
}

func (m *authRoleImpl) reject(writer http.ResponseWriter, scope otel.Scope, err error) {
	scope.TraceError(err)
	response.WithError(writer, err)
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, jwt.ErrInvalidClaim):
		return "Invalid token claims"
	default:
		return "Invalid token"
	}
}

func withActor(ctx context.Context, id, role string) context.Context {
	ctx = context.WithValue(ctx, constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func trusted(ctx context.Context) bool {
	ok, _ := ctx.Value(trustedKey{}).(bool)

	return ok
}

// routePattern resolves the registered pattern of the request, such as /v1/bookings/{id}.
func routePattern(request *http.Request) string {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || rctx.Routes == nil {
		return request.URL.Path
	}

	return rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path)
}
