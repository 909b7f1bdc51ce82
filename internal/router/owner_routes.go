package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/menu-catalog/internal/handler"    // catalog handlers
	"github.com/iliyamo/menu-catalog/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/menu-catalog/internal/model"
)

// RegisterCatalogs registers the owner catalog endpoints under /v1/catalogs.
// All routes require a valid JWT and the OWNER or MANAGER role; ownership of
// the branch or company is checked by the service.
func RegisterCatalogs(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string) {
	g := e.Group(
		"/v1/catalogs",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleManager),
	)

	// ---- Catalogs ----
	g.POST("", h.CreateCatalog)
	g.POST("/initiate", h.InitiateCatalog)
	g.GET("/:id", h.GetCatalog)
	g.PUT("/updateName/:id", h.RenameCatalog)
	g.GET("/getByCompany/:id", h.GetCatalogsByCompany)
	g.GET("/qr-code/:id", h.QRCode)
	g.GET("/essential-data/company/:id", h.Essentials)

	// ---- Sections ----
	g.POST("/:id/section", h.CreateSection)
	g.PUT("/:id/swap", h.SwapSections)
	g.PUT("/:catalog/section/:section/update-name", h.ChangeSectionName)
	g.GET("/:catalog/section/:section/getSection", h.GetSection)
	g.DELETE("/:catalog/section/:section", h.DeleteSection)

	// ---- Section items ----
	g.PUT("/:catalog/section/:section/pushProduct", h.PushItem)
	g.POST("/:catalog/section/:section/pushProduct/create", h.CreateItem)
	g.PUT("/:catalog/section/:section/remove-item/:item", h.RemoveItem)
	g.PUT("/:catalog/section/:section/toggle-item-actif/:item", h.ToggleItem)
}
