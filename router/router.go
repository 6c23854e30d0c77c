package router

import (
	"go-auth-api/handler"
	"go-auth-api/model"
	"net/http"

	_ "go-auth-api/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups what NewRouter mounts. Metrics may be nil.
type Handlers struct {
	Auth          *handler.AuthHandler
	Members       *handler.MemberHandler
	Authenticator handler.Authenticator
	Metrics       http.Handler
}

func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	mux.Handle("POST /api/v1/auth/signup", handler.ErrorHandlingMiddleware(h.Auth.Signup))
	mux.Handle("POST /api/v1/auth/login", handler.ErrorHandlingMiddleware(h.Auth.Login))
	mux.Handle("POST /api/v1/auth/refresh", handler.ErrorHandlingMiddleware(h.Auth.Refresh))
	mux.Handle("POST /api/v1/auth/logout", handler.ErrorHandlingMiddleware(h.Auth.Logout))

	authenticated := handler.AuthMiddleware(h.Authenticator)
	adminOnly := func(next http.Handler) http.Handler {
		return authenticated(handler.RequireRoles(model.RoleAdmin)(next))
	}

	mux.Handle("GET /api/v1/members/ping", handler.ErrorHandlingMiddleware(h.Members.Ping))
	mux.Handle("GET /api/v1/members/me", authenticated(handler.ErrorHandlingMiddleware(h.Members.Me)))
	mux.Handle("GET /api/v1/members/admin-only", adminOnly(handler.ErrorHandlingMiddleware(h.Members.AdminOnly)))
	mux.Handle("POST /api/v1/members/{id}/sessions/revoke", adminOnly(handler.ErrorHandlingMiddleware(h.Members.RevokeSessions)))

	return mux
}
