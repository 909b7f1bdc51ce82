package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/menu"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/queue"
)

// CatalogInput creates a catalog. Sections is ignored by InitiateCatalog.
type CatalogInput struct {
	Name      string
	BranchID  uint64
	Days      []string
	StartTime time.Time
	EndTime   time.Time
	Available *bool
	Sections  []menu.NewSection
}

// NewItem is an item created directly inside a section.
type NewItem struct {
	Name          string
	Description   string
	Image         string
	Variations    []model.Variation
	IngredientIDs []uint64
	AllergenIDs   []uint64
	KeywordIDs    []uint64
}

// Essentials is the reference data an owner picks from when editing items.
type Essentials struct {
	Allergens []model.Allergen `json:"allergens"`
	Keywords  []model.Keyword  `json:"keywords"`
}

// CatalogService implements the owner-facing catalog operations. Every
// mutation loads the whole catalog, checks branch ownership, applies one
// ordered change and saves the document with a version check.
type CatalogService struct {
	catalogs   CatalogStore
	companies  CompanyStore
	items      ItemStore
	essentials EssentialsStore
	auth       *Authorizer
	qr         QREncoder
	qrBasePath string
	events     EventPublisher
	log        *logger.Logger
}

type Option func(*CatalogService)

func WithQREncoder(e QREncoder) Option {
	return func(s *CatalogService) { s.qr = e }
}

// WithQRBasePath sets the public menu URL prefix encoded in QR codes. QR
// generation is refused while it is empty.
func WithQRBasePath(p string) Option {
	return func(s *CatalogService) { s.qrBasePath = strings.TrimRight(p, "/") }
}

func WithEvents(p EventPublisher) Option {
	return func(s *CatalogService) { s.events = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *CatalogService) { s.log = l }
}

func NewCatalogService(catalogs CatalogStore, companies CompanyStore, items ItemStore, essentials EssentialsStore, opts ...Option) *CatalogService {
	s := &CatalogService{
		catalogs:   catalogs,
		companies:  companies,
		items:      items,
		essentials: essentials,
		auth:       NewAuthorizer(companies),
		qr:         NewPNGEncoder(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCatalog stores a new catalog on a branch owned by userID. Sections
// are inserted in input order, each at its requested index.
func (s *CatalogService) CreateCatalog(ctx context.Context, userID uint64, in CatalogInput) (*model.Catalog, error) {
	branch, company, err := s.auth.ownedBranch(ctx, userID, in.BranchID)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for _, ns := range in.Sections {
		ids = append(ids, ns.ItemIDs...)
	}
	if err := s.checkCompanyItems(ctx, company.ID, ids); err != nil {
		return nil, err
	}
	c := &model.Catalog{
		Name:      strings.TrimSpace(in.Name),
		Branch:    model.Resolved(branch.ID, branch),
		Days:      append([]string{}, in.Days...),
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Sections:  []model.Section{},
		Available: in.Available == nil || *in.Available,
	}
	for _, ns := range in.Sections {
		menu.CreateSection(c, ns)
	}
	if err := s.catalogs.Create(ctx, c); err != nil {
		return nil, storeError("create catalog", err)
	}
	s.log.Info("catalog created", "catalog_id", c.ID, "branch_id", branch.ID, "user_id", userID)
	s.publish(ctx, c, company, userID, queue.ActionCreated)
	return c, nil
}

// InitiateCatalog creates a catalog with no sections.
func (s *CatalogService) InitiateCatalog(ctx context.Context, userID uint64, in CatalogInput) (*model.Catalog, error) {
	in.Sections = nil
	return s.CreateCatalog(ctx, userID, in)
}

// GetCatalogByID returns the catalog with items and branch resolved. The
// caller's ownership is checked before the document is read.
func (s *CatalogService) GetCatalogByID(ctx context.Context, id, userID uint64) (*model.Catalog, error) {
	branchID, err := s.catalogs.BranchIDOf(ctx, id)
	if err != nil {
		return nil, storeError("load catalog", err)
	}
	branch, _, err := s.auth.ownedBranch(ctx, userID, branchID)
	if err != nil {
		return nil, err
	}
	c, err := s.catalogs.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load catalog", err)
	}
	c.Branch = model.Resolved(branch.ID, branch)
	if err := resolveItems(ctx, s.items, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RenameCatalog changes the catalog's own name.
func (s *CatalogService) RenameCatalog(ctx context.Context, id uint64, name string, userID uint64) (*model.Catalog, error) {
	return s.mutate(ctx, id, userID, queue.ActionRenamed, func(m *mutation) error {
		m.catalog.Name = strings.TrimSpace(name)
		return nil
	})
}

// GetCatalogsByCompany lists the catalogs of every branch of a company
// owned by userID, grouped by branch in branch order.
func (s *CatalogService) GetCatalogsByCompany(ctx context.Context, companyID, userID uint64) ([]*model.Catalog, error) {
	if _, err := s.auth.CheckCompanyOwner(ctx, userID, companyID); err != nil {
		return nil, err
	}
	branches, err := s.companies.ListBranches(ctx, companyID)
	if err != nil {
		return nil, storeError("list branches", err)
	}

	perBranch := make([][]*model.Catalog, len(branches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, b := range branches {
		g.Go(func() error {
			list, err := s.catalogs.ListByBranch(gctx, b.ID)
			if err != nil {
				return fmt.Errorf("branch %d: %w", b.ID, err)
			}
			for _, c := range list {
				c.Branch = model.Resolved(b.ID, b)
			}
			perBranch[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError("list catalogs", err)
	}

	out := []*model.Catalog{}
	for _, list := range perBranch {
		out = append(out, list...)
	}
	return out, nil
}

// CreateSection inserts a section at ns.Order and returns the catalog.
func (s *CatalogService) CreateSection(ctx context.Context, catalogID, userID uint64, ns menu.NewSection) (*model.Catalog, error) {
	return s.mutate(ctx, catalogID, userID, queue.ActionSectionCreated, func(m *mutation) error {
		if err := s.checkCompanyItems(ctx, m.company.ID, ns.ItemIDs); err != nil {
			return err
		}
		menu.CreateSection(m.catalog, ns)
		return nil
	})
}

// ChangeSectionName renames one section and returns it.
func (s *CatalogService) ChangeSectionName(ctx context.Context, catalogID uint64, sectionID, name string, userID uint64) (*model.Section, error) {
	c, err := s.mutate(ctx, catalogID, userID, queue.ActionSectionRenamed, func(m *mutation) error {
		_, err := menu.ChangeSectionName(m.catalog, sectionID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return menu.FindSection(c, sectionID)
}

// DeleteSection removes a section and returns the re-indexed catalog.
func (s *CatalogService) DeleteSection(ctx context.Context, catalogID uint64, sectionID string, userID uint64) (*model.Catalog, error) {
	return s.mutate(ctx, catalogID, userID, queue.ActionSectionDeleted, func(m *mutation) error {
		return menu.DeleteSection(m.catalog, sectionID)
	})
}

// SwapSections moves a section to newOrder and returns the catalog.
func (s *CatalogService) SwapSections(ctx context.Context, catalogID uint64, sectionID string, newOrder int, userID uint64) (*model.Catalog, error) {
	return s.mutate(ctx, catalogID, userID, queue.ActionSectionMoved, func(m *mutation) error {
		return menu.SwapSections(m.catalog, sectionID, newOrder)
	})
}

// GetSection returns one section with its items resolved.
func (s *CatalogService) GetSection(ctx context.Context, catalogID uint64, sectionID string, userID uint64) (*model.Section, error) {
	c, err := s.GetCatalogByID(ctx, catalogID, userID)
	if err != nil {
		return nil, err
	}
	return menu.FindSection(c, sectionID)
}

// PushItemToSection appends an existing item of the catalog's company to
// the end of a section.
func (s *CatalogService) PushItemToSection(ctx context.Context, catalogID uint64, sectionID string, itemID, userID uint64) (*model.Section, error) {
	return s.sectionMutation(ctx, catalogID, sectionID, userID, queue.ActionItemPushed, func(m *mutation) error {
		if _, err := menu.FindSection(m.catalog, sectionID); err != nil {
			return err
		}
		if err := s.checkCompanyItems(ctx, m.company.ID, []uint64{itemID}); err != nil {
			return err
		}
		_, err := menu.PushItem(m.catalog, sectionID, itemID)
		return err
	})
}

// CreateItemInSection creates a new item for the catalog's company and
// pushes it into the section.
func (s *CatalogService) CreateItemInSection(ctx context.Context, catalogID uint64, sectionID string, userID uint64, in NewItem) (*model.Section, error) {
	return s.sectionMutation(ctx, catalogID, sectionID, userID, queue.ActionItemPushed, func(m *mutation) error {
		if _, err := menu.FindSection(m.catalog, sectionID); err != nil {
			return err
		}
		branchID := m.branch.ID
		it := &model.Item{
			CompanyID:     m.company.ID,
			BranchID:      &branchID,
			Name:          strings.TrimSpace(in.Name),
			Description:   in.Description,
			Image:         in.Image,
			Available:     true,
			Variations:    in.Variations,
			IngredientIDs: in.IngredientIDs,
			AllergenIDs:   in.AllergenIDs,
			KeywordIDs:    in.KeywordIDs,
		}
		if err := s.items.Create(ctx, it); err != nil {
			return storeError("create item", err)
		}
		_, err := menu.PushItem(m.catalog, sectionID, it.ID)
		return err
	})
}

// RemoveItem drops an item from a section and returns the section.
func (s *CatalogService) RemoveItem(ctx context.Context, catalogID uint64, sectionID string, itemID, userID uint64) (*model.Section, error) {
	return s.sectionMutation(ctx, catalogID, sectionID, userID, queue.ActionItemRemoved, func(m *mutation) error {
		_, err := menu.RemoveItem(m.catalog, sectionID, itemID)
		return err
	})
}

// ToggleItem flips an item's active flag and returns the section.
func (s *CatalogService) ToggleItem(ctx context.Context, catalogID uint64, sectionID string, itemID, userID uint64) (*model.Section, error) {
	return s.sectionMutation(ctx, catalogID, sectionID, userID, queue.ActionItemToggled, func(m *mutation) error {
		_, err := menu.ToggleItem(m.catalog, sectionID, itemID)
		return err
	})
}

// GenerateQRCode renders the public menu URL of the catalog's company as a
// PNG.
func (s *CatalogService) GenerateQRCode(ctx context.Context, catalogID, userID uint64) ([]byte, error) {
	c, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, storeError("load catalog", err)
	}
	if _, err := s.companies.GetBranch(ctx, c.Branch.RefID()); err != nil {
		if apperr.IsKind(storeError("", err), apperr.KindNotFound) {
			return nil, apperr.BadRequest("Forbidden, Can't generate QrCode no branch", err)
		}
		return nil, storeError("load branch", err)
	}
	_, company, err := s.auth.ownedBranch(ctx, userID, c.Branch.RefID())
	if err != nil {
		return nil, err
	}
	if s.qrBasePath == "" {
		return nil, apperr.BadRequest("Forbidden, can't generate QrCode", nil)
	}
	png, err := s.qr.Encode(s.qrBasePath+"/"+url.PathEscape(company.Name), QRSize)
	if err != nil {
		return nil, apperr.Internal("encode qr code", err)
	}
	return png, nil
}

// GetCatalogsEssentials returns the allergens and keywords of a company.
func (s *CatalogService) GetCatalogsEssentials(ctx context.Context, companyID, userID uint64) (*Essentials, error) {
	if _, err := s.auth.CheckCompanyOwner(ctx, userID, companyID); err != nil {
		return nil, err
	}
	allergens, err := s.essentials.AllergensByCompany(ctx, companyID)
	if err != nil {
		return nil, storeError("list allergens", err)
	}
	keywords, err := s.essentials.KeywordsByCompany(ctx, companyID)
	if err != nil {
		return nil, storeError("list keywords", err)
	}
	return &Essentials{Allergens: allergens, Keywords: keywords}, nil
}

// checkCompanyItems fails with NotFound when one of ids does not exist and
// Forbidden when one belongs to another company.
func (s *CatalogService) checkCompanyItems(ctx context.Context, companyID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return storeError("load items", err)
	}
	for _, id := range ids {
		it, ok := found[id]
		if !ok {
			return apperr.NotFound("Item not found")
		}
		if it.CompanyID != companyID {
			return apperr.Forbidden("Forbidden, item belongs to another company")
		}
	}
	return nil
}

// mutation is the state handed to a change function: the loaded catalog
// and the branch and company its owner was verified against.
type mutation struct {
	catalog *model.Catalog
	branch  *model.Branch
	company *model.Company
}

// mutate runs one load, authorize, change, save cycle. Errors from change
// are returned as is; save failures other than a version conflict or a
// vanished catalog surface as BadRequest wrapping the cause.
func (s *CatalogService) mutate(ctx context.Context, catalogID, userID uint64, action string, change func(*mutation) error) (_ *model.Catalog, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.mutate")
	span.SetAttributes(attribute.Int64("catalog.id", int64(catalogID)), attribute.String("catalog.action", action))
	defer func() {
		if err != nil && apperr.KindOf(err) == apperr.KindInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	c, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, storeError("load catalog", err)
	}
	branch, company, err := s.auth.ownedBranch(ctx, userID, c.Branch.RefID())
	if err != nil {
		return nil, err
	}
	if err := change(&mutation{catalog: c, branch: branch, company: company}); err != nil {
		return nil, err
	}
	if err := s.catalogs.Save(ctx, c); err != nil {
		switch apperr.KindOf(storeError("", err)) {
		case apperr.KindConflict, apperr.KindNotFound:
			return nil, storeError("save catalog", err)
		default:
			return nil, apperr.BadRequest("could not save catalog", err)
		}
	}
	c.Branch = model.Resolved(branch.ID, branch)
	s.log.Info("catalog updated", "catalog_id", c.ID, "action", action, "version", c.Version, "user_id", userID)
	s.publish(ctx, c, company, userID, action)
	return c, nil
}

// sectionMutation is mutate for operations that answer with the touched
// section, items resolved.
func (s *CatalogService) sectionMutation(ctx context.Context, catalogID uint64, sectionID string, userID uint64, action string, change func(*mutation) error) (*model.Section, error) {
	c, err := s.mutate(ctx, catalogID, userID, action, change)
	if err != nil {
		return nil, err
	}
	sec, err := menu.FindSection(c, sectionID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(sec.Items))
	for i, it := range sec.Items {
		ids[i] = it.Item.RefID()
	}
	found, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("load items", err)
	}
	resolveSectionItems(sec, found)
	return sec, nil
}

// publish notifies listeners of a saved change. Failures are logged only;
// the change is already durable.
func (s *CatalogService) publish(ctx context.Context, c *model.Catalog, company *model.Company, userID uint64, action string) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	ev := queue.CatalogChangedEvent{
		CatalogID:   c.ID,
		BranchID:    c.Branch.RefID(),
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Action:      action,
		UserID:      userID,
		Version:     c.Version,
		ChangedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishCatalogChanged(ctx, ev); err != nil {
		s.log.Warn("publish catalog event failed", "catalog_id", c.ID, "action", action, "error", err)
	}
}
