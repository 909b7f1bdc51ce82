package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/menu"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/repository"
)

// ClientMenu is the public menu of a company.
type ClientMenu struct {
	Company *model.Company `json:"company"`
	Branch  *model.Branch  `json:"branch"`
	Catalog *model.Catalog `json:"catalog"`
}

// ClientService serves the read-only menu shown to customers. It performs
// no ownership checks and never writes.
type ClientService struct {
	catalogs  CatalogStore
	companies CompanyStore
	items     ItemStore
}

func NewClientService(catalogs CatalogStore, companies CompanyStore, items ItemStore) *ClientService {
	return &ClientService{catalogs: catalogs, companies: companies, items: items}
}

// GetMenuForClient resolves company name -> first branch -> first catalog
// and returns the catalog with only active items. Sections with no active
// item are kept with an empty item list.
func (s *ClientService) GetMenuForClient(ctx context.Context, companyName string) (*ClientMenu, error) {
	ctx, span := tracer.Start(ctx, "ClientService.GetMenuForClient")
	defer span.End()

	company, err := s.companies.GetByName(ctx, strings.TrimSpace(companyName))
	if errors.Is(err, repository.ErrCompanyNotFound) {
		return nil, apperr.NotFound("Company Not Found")
	}
	if err != nil {
		return nil, storeError("load company", err)
	}
	branch, err := s.companies.FirstBranch(ctx, company.ID)
	if errors.Is(err, repository.ErrBranchNotFound) {
		return nil, apperr.NotFound("Branch Not Found")
	}
	if err != nil {
		return nil, storeError("load branch", err)
	}
	c, err := s.catalogs.FirstByBranch(ctx, branch.ID)
	if err != nil {
		return nil, storeError("load catalog", err)
	}
	if err := resolveItems(ctx, s.items, c); err != nil {
		return nil, err
	}
	for i := range c.Sections {
		c.Sections[i].Items = menu.ActiveItems(&c.Sections[i])
	}
	c.Branch = model.Resolved(branch.ID, branch)
	return &ClientMenu{Company: company, Branch: branch, Catalog: c}, nil
}

// GetItemsBySection returns the active items of one section, resolved.
func (s *ClientService) GetItemsBySection(ctx context.Context, catalogID uint64, sectionID string) ([]model.SectionItem, error) {
	c, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, storeError("load catalog", err)
	}
	i := -1
	for j := range c.Sections {
		if c.Sections[j].ID == sectionID {
			i = j
			break
		}
	}
	if i < 0 {
		return nil, apperr.NotFound("Section Not found")
	}
	sec := &c.Sections[i]
	active := menu.ActiveItems(sec)
	if len(active) == 0 {
		return active, nil
	}
	ids := make([]uint64, len(active))
	for j, it := range active {
		ids[j] = it.Item.RefID()
	}
	found, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("load items", err)
	}
	sec.Items = active
	resolveSectionItems(sec, found)
	if !sec.Items[0].Item.IsResolved() {
		return nil, apperr.Forbidden("Forbidden, no items")
	}
	return sec.Items, nil
}

// GetItemByIDClient returns one item with its ingredients, allergens,
// keywords, branch and company.
func (s *ClientService) GetItemByIDClient(ctx context.Context, id uint64) (*model.ItemDetail, error) {
	d, err := s.items.GetDetail(ctx, id)
	if err != nil {
		return nil, storeError("load item", err)
	}
	return d, nil
}
