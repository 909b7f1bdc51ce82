// Package service holds the catalog use cases: the owner-facing catalog
// aggregate and the public client projection. Services talk to storage
// through the small interfaces below, implemented by the MySQL repositories
// and by the in-memory store.
package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/queue"
	"github.com/iliyamo/menu-catalog/internal/repository"
)

var tracer = otel.Tracer("github.com/iliyamo/menu-catalog/internal/service")

// CatalogStore persists whole catalog documents. Save must reject a stale
// Version with repository.ErrVersionConflict.
type CatalogStore interface {
	Create(ctx context.Context, c *model.Catalog) error
	GetByID(ctx context.Context, id uint64) (*model.Catalog, error)
	BranchIDOf(ctx context.Context, id uint64) (uint64, error)
	ListByBranch(ctx context.Context, branchID uint64) ([]*model.Catalog, error)
	FirstByBranch(ctx context.Context, branchID uint64) (*model.Catalog, error)
	Save(ctx context.Context, c *model.Catalog) error
}

type CompanyStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Company, error)
	GetByName(ctx context.Context, name string) (*model.Company, error)
	GetBranch(ctx context.Context, id uint64) (*model.Branch, error)
	FirstBranch(ctx context.Context, companyID uint64) (*model.Branch, error)
	ListBranches(ctx context.Context, companyID uint64) ([]*model.Branch, error)
}

type ItemStore interface {
	Create(ctx context.Context, it *model.Item) error
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Item, error)
	GetDetail(ctx context.Context, id uint64) (*model.ItemDetail, error)
}

type EssentialsStore interface {
	AllergensByCompany(ctx context.Context, companyID uint64) ([]model.Allergen, error)
	KeywordsByCompany(ctx context.Context, companyID uint64) ([]model.Keyword, error)
}

// EventPublisher receives a notification after every saved catalog change.
type EventPublisher interface {
	PublishCatalogChanged(ctx context.Context, ev queue.CatalogChangedEvent) error
}

// storeError translates repository errors into application errors. Errors
// that are already typed pass through unchanged.
func storeError(op string, err error) error {
	var typed *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &typed):
		return err
	case errors.Is(err, repository.ErrCatalogNotFound):
		return apperr.New(apperr.KindNotFound, "Catalog not found", err)
	case errors.Is(err, repository.ErrBranchNotFound):
		return apperr.New(apperr.KindNotFound, "Branch not found", err)
	case errors.Is(err, repository.ErrCompanyNotFound):
		return apperr.New(apperr.KindNotFound, "Company not found", err)
	case errors.Is(err, repository.ErrItemNotFound):
		return apperr.New(apperr.KindNotFound, "Item not found", err)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperr.New(apperr.KindConflict, "catalog was modified concurrently, reload and retry", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.New(apperr.KindConflict, "already exists", err)
	default:
		return apperr.Internal(op, err)
	}
}

// resolveItems replaces the item refs of c with loaded items. Refs whose
// item no longer exists stay unresolved.
func resolveItems(ctx context.Context, items ItemStore, c *model.Catalog) error {
	ids := c.ItemIDs()
	if len(ids) == 0 {
		return nil
	}
	found, err := items.GetByIDs(ctx, ids)
	if err != nil {
		return storeError("load items", err)
	}
	for i := range c.Sections {
		resolveSectionItems(&c.Sections[i], found)
	}
	return nil
}

func resolveSectionItems(sec *model.Section, found map[uint64]*model.Item) {
	for j := range sec.Items {
		ref := sec.Items[j].Item
		if it, ok := found[ref.RefID()]; ok {
			sec.Items[j].Item = model.Resolved(ref.RefID(), it)
		}
	}
}
