package menu

import (
	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/ordering"
)

// PushItem appends an active reference to itemID at the end of the section.
// An item may appear at most once per section.
func PushItem(catalog *model.Catalog, sectionID string, itemID uint64) (*model.Section, error) {
	sec, err := FindSection(catalog, sectionID)
	if err != nil {
		return nil, err
	}
	if ordering.IndexOf(sec.Items, model.ItemKey(itemID)) >= 0 {
		return nil, apperr.Conflict("item already in section")
	}
	sec.Items = ordering.Append(sec.Items, model.SectionItem{
		Item:  model.Unresolved[model.Item](itemID),
		Actif: true,
	})
	return sec, nil
}

// RemoveItem drops itemID from the section. Items are matched by id whether
// or not the reference has been resolved.
func RemoveItem(catalog *model.Catalog, sectionID string, itemID uint64) (*model.Section, error) {
	sec, err := FindSection(catalog, sectionID)
	if err != nil {
		return nil, err
	}
	items, err := ordering.Remove(sec.Items, model.ItemKey(itemID))
	if err != nil {
		return nil, translate(err, "item not found in section")
	}
	sec.Items = items
	return sec, nil
}

// ToggleItem flips the active flag of itemID within the section.
func ToggleItem(catalog *model.Catalog, sectionID string, itemID uint64) (*model.Section, error) {
	sec, err := FindSection(catalog, sectionID)
	if err != nil {
		return nil, err
	}
	i := ordering.IndexOf(sec.Items, model.ItemKey(itemID))
	if i < 0 {
		return nil, apperr.NotFound("item not found in section")
	}
	sec.Items[i].Actif = !sec.Items[i].Actif
	ordering.Reindex(sec.Items)
	return sec, nil
}

// ActiveItems returns the active items of a section, never nil.
func ActiveItems(sec *model.Section) []model.SectionItem {
	out := make([]model.SectionItem, 0, len(sec.Items))
	for _, it := range sec.Items {
		if it.Actif {
			out = append(out, it)
		}
	}
	return out
}
