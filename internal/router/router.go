package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/menu-catalog/internal/handler"    // handlers that adapt HTTP to the services
	"github.com/iliyamo/menu-catalog/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/menu-catalog/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// liveness at /healthz and readiness at /readyz.
func RegisterRoutes(e *echo.Echo, checks map[string]handler.Check) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(checks))
}

// RegisterAuth registers registration and login under /v1/auth and the
// protected /v1/me endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOwner, model.RoleManager))
}
