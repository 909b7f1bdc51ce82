package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/menu"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/service"
)

// CatalogHandler exposes the owner catalog operations under /v1/catalogs.
type CatalogHandler struct {
	Catalogs *service.CatalogService
	Log      *logger.Logger
}

func NewCatalogHandler(s *service.CatalogService, log *logger.Logger) *CatalogHandler {
	if s == nil {
		panic("nil catalog service passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalogs: s, Log: log}
}

// ----- DTOs -----

type sectionReq struct {
	Order       int      `json:"order" validate:"gte=0"`
	Name        string   `json:"name" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=500"`
	Items       []uint64 `json:"items" validate:"dive,gt=0"`
}

func (r sectionReq) toNew() menu.NewSection {
	return menu.NewSection{Order: r.Order, Name: r.Name, Description: r.Description, ItemIDs: r.Items}
}

type catalogReq struct {
	Name      string       `json:"name" validate:"required,max=120"`
	Branch    uint64       `json:"branch" validate:"required"`
	Days      []string     `json:"days" validate:"dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Available *bool        `json:"available"`
	Sections  []sectionReq `json:"sections" validate:"dive"`
}

type nameReq struct {
	Name string `json:"name" validate:"required,max=120"`
}

type pushItemReq struct {
	Item uint64 `json:"item" validate:"required"`
}

type newItemReq struct {
	Name        string            `json:"name" validate:"required,max=120"`
	Description string            `json:"description" validate:"max=1000"`
	Image       string            `json:"image" validate:"omitempty,url"`
	Variations  []model.Variation `json:"variations" validate:"dive"`
	Ingredients []uint64          `json:"ingredients"`
	Allergens   []uint64          `json:"allergens"`
	Keywords    []uint64          `json:"keywords"`
}

func (h *CatalogHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 10*time.Second)
}

func (h *CatalogHandler) create(c echo.Context, initiate bool) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req catalogReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, h.Log, err)
	}
	in := service.CatalogInput{
		Name:      req.Name,
		BranchID:  req.Branch,
		Days:      req.Days,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Available: req.Available,
	}
	for _, s := range req.Sections {
		in.Sections = append(in.Sections, s.toNew())
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	var cat *model.Catalog
	if initiate {
		cat, err = h.Catalogs.InitiateCatalog(ctx, uid, in)
	} else {
		cat, err = h.Catalogs.CreateCatalog(ctx, uid, in)
	}
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

// CreateCatalog: POST /v1/catalogs
func (h *CatalogHandler) CreateCatalog(c echo.Context) error { return h.create(c, false) }

// InitiateCatalog: POST /v1/catalogs/initiate, sections are ignored.
func (h *CatalogHandler) InitiateCatalog(c echo.Context) error { return h.create(c, true) }

// GetCatalog: GET /v1/catalogs/:id
func (h *CatalogHandler) GetCatalog(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	cat, err := h.Catalogs.GetCatalogByID(ctx, id, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// RenameCatalog: PUT /v1/catalogs/updateName/:id
func (h *CatalogHandler) RenameCatalog(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	var req nameReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	cat, err := h.Catalogs.RenameCatalog(ctx, id, req.Name, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// GetCatalogsByCompany: GET /v1/catalogs/getByCompany/:id
func (h *CatalogHandler) GetCatalogsByCompany(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	list, err := h.Catalogs.GetCatalogsByCompany(ctx, id, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateSection: POST /v1/catalogs/:id/section
func (h *CatalogHandler) CreateSection(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	var req sectionReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	cat, err := h.Catalogs.CreateSection(ctx, id, uid, req.toNew())
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

// ChangeSectionName: PUT /v1/catalogs/:catalog/section/:section/update-name
func (h *CatalogHandler) ChangeSectionName(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "catalog")
	if err != nil {
		return respond(c, h.Log, err)
	}
	var req nameReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	sec, err := h.Catalogs.ChangeSectionName(ctx, id, c.Param("section"), req.Name, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sec)
}

// DeleteSection: DELETE /v1/catalogs/:catalog/section/:section
func (h *CatalogHandler) DeleteSection(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "catalog")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	cat, err := h.Catalogs.DeleteSection(ctx, id, c.Param("section"), uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// SwapSections: PUT /v1/catalogs/:id/swap?section=<id>&order=<n>
func (h *CatalogHandler) SwapSections(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	sectionID := c.QueryParam("section")
	order, convErr := strconv.Atoi(c.QueryParam("order"))
	if sectionID == "" || convErr != nil {
		return respond(c, h.Log, apperr.BadRequest("section and order query parameters are required", nil))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	cat, err := h.Catalogs.SwapSections(ctx, id, sectionID, order, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// GetSection: GET /v1/catalogs/:catalog/section/:section/getSection
func (h *CatalogHandler) GetSection(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "catalog")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	sec, err := h.Catalogs.GetSection(ctx, id, c.Param("section"), uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sec)
}

// PushItem: PUT /v1/catalogs/:catalog/section/:section/pushProduct
func (h *CatalogHandler) PushItem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "catalog")
	if err != nil {
		return respond(c, h.Log, err)
	}
	var req pushItemReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	sec, err := h.Catalogs.PushItemToSection(ctx, id, c.Param("section"), req.Item, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sec)
}

// CreateItem: POST /v1/catalogs/:catalog/section/:section/pushProduct/create
func (h *CatalogHandler) CreateItem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "catalog")
	if err != nil {
		return respond(c, h.Log, err)
	}
	var req newItemReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	sec, err := h.Catalogs.CreateItemInSection(ctx, id, c.Param("section"), uid, service.NewItem{
		Name:          req.Name,
		Description:   req.Description,
		Image:         req.Image,
		Variations:    req.Variations,
		IngredientIDs: req.Ingredients,
		AllergenIDs:   req.Allergens,
		KeywordIDs:    req.Keywords,
	})
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, sec)
}

// RemoveItem: PUT /v1/catalogs/:catalog/section/:section/remove-item/:item
func (h *CatalogHandler) RemoveItem(c echo.Context) error {
	return h.itemChange(c, h.Catalogs.RemoveItem)
}

// ToggleItem: PUT /v1/catalogs/:catalog/section/:section/toggle-item-actif/:item
func (h *CatalogHandler) ToggleItem(c echo.Context) error {
	return h.itemChange(c, h.Catalogs.ToggleItem)
}

type itemChangeFunc func(ctx context.Context, catalogID uint64, sectionID string, itemID, userID uint64) (*model.Section, error)

func (h *CatalogHandler) itemChange(c echo.Context, change itemChangeFunc) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "catalog")
	if err != nil {
		return respond(c, h.Log, err)
	}
	itemID, err := paramID(c, "item")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	sec, err := change(ctx, id, c.Param("section"), itemID, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sec)
}

// QRCode: GET /v1/catalogs/qr-code/:id, answers image/png.
func (h *CatalogHandler) QRCode(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	png, err := h.Catalogs.GenerateQRCode(ctx, id, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Essentials: GET /v1/catalogs/essential-data/company/:id
func (h *CatalogHandler) Essentials(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respond(c, h.Log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	es, err := h.Catalogs.GetCatalogsEssentials(ctx, id, uid)
	if err != nil {
		return respond(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, es)
}
