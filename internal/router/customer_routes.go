package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/menu-catalog/internal/handler"
)

// RegisterClient registers the public menu endpoints under /v1/client.  No
// authentication is required.  The given middlewares (rate limit, cache)
// wrap every route, in order.
func RegisterClient(e *echo.Echo, h *handler.ClientHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/client")
	g.GET("/company/:companyName", h.GetMenu, mw...)
	g.GET("/:catalogId/section/:sectionId", h.GetSectionItems, mw...)
	g.GET("/item/:id", h.GetItem, mw...)
}
