package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/service"
)

// ClientHandler serves the public menu under /v1/client.  No authentication.
type ClientHandler struct {
	Client *service.ClientService
	Log    *logger.Logger
}

func NewClientHandler(s *service.ClientService, log *logger.Logger) *ClientHandler {
	return &ClientHandler{Client: s, Log: log}
}

// GetMenu: GET /v1/client/company/:companyName
func (h *ClientHandler) GetMenu(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("companyName"))
	if err != nil {
		name = c.Param("companyName")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Client.GetMenuForClient(ctx, name)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// GetSectionItems: GET /v1/client/:catalogId/section/:sectionId
func (h *ClientHandler) GetSectionItems(c echo.Context) error {
	id, err := paramID(c, "catalogId")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Client.GetItemsBySection(ctx, id, c.Param("sectionId"))
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetItem: GET /v1/client/item/:id
func (h *ClientHandler) GetItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	item, err := h.Client.GetItemByIDClient(ctx, id)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, item)
}
