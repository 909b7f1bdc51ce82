// Package menu applies ordered mutations to a loaded catalog: sections
// within the catalog and items within a section. Nothing here performs I/O;
// callers load the catalog, call one of these functions and save the result.
package menu

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/ordering"
)

// NewSection describes a section to create. Order is the desired insertion
// index, clamped to the current number of sections.
type NewSection struct {
	Order       int
	Name        string
	Description string
	ItemIDs     []uint64
}

// newID is swapped in tests.
var newID = func() string { return uuid.NewString() }

// CreateSection inserts a section at ns.Order and returns a pointer to it
// inside catalog.Sections.
func CreateSection(catalog *model.Catalog, ns NewSection) *model.Section {
	sec := model.Section{
		ID:          newID(),
		Name:        strings.TrimSpace(ns.Name),
		Description: ns.Description,
		Items:       make([]model.SectionItem, 0, len(ns.ItemIDs)),
	}
	for _, id := range ns.ItemIDs {
		if ordering.IndexOf(sec.Items, model.ItemKey(id)) >= 0 {
			continue
		}
		sec.Items = ordering.Append(sec.Items, model.SectionItem{Item: model.Unresolved[model.Item](id), Actif: true})
	}
	catalog.Sections = ordering.Insert(catalog.Sections, ns.Order, sec)
	return &catalog.Sections[ordering.IndexOf(catalog.Sections, sec.ID)]
}

// FindSection returns the section with id, or a NotFound error.
func FindSection(catalog *model.Catalog, sectionID string) (*model.Section, error) {
	i := ordering.IndexOf(catalog.Sections, sectionID)
	if i < 0 {
		return nil, apperr.NotFound("section not found")
	}
	return &catalog.Sections[i], nil
}

// ChangeSectionName renames one section.
func ChangeSectionName(catalog *model.Catalog, sectionID, name string) (*model.Section, error) {
	sec, err := FindSection(catalog, sectionID)
	if err != nil {
		return nil, err
	}
	sec.Name = strings.TrimSpace(name)
	return sec, nil
}

// DeleteSection removes a section and re-indexes the remaining ones.
func DeleteSection(catalog *model.Catalog, sectionID string) error {
	secs, err := ordering.Remove(catalog.Sections, sectionID)
	if err != nil {
		return translate(err, "section not found")
	}
	catalog.Sections = secs
	return nil
}

// SwapSections moves a section to newOrder. The other sections keep their
// relative order.
func SwapSections(catalog *model.Catalog, sectionID string, newOrder int) error {
	secs, err := ordering.Move(catalog.Sections, sectionID, newOrder)
	if err != nil {
		return translate(err, "section not found")
	}
	catalog.Sections = secs
	return nil
}

func translate(err error, notFound string) error {
	switch {
	case errors.Is(err, ordering.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, ordering.ErrInvalidIndex):
		return apperr.Forbidden("Invalid new index")
	default:
		return err
	}
}
