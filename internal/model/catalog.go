package model

import (
	"strconv"
	"time"
)

// Catalog is a time-scoped menu of one branch. Sections and their items are
// stored with the catalog and saved as a whole; Version guards that save.
type Catalog struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Branch    BranchRef `json:"branch"`
	Days      []string  `json:"days"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Sections  []Section `json:"sections"`
	Available bool      `json:"available"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Section is a named group of items inside a catalog. ID is a uuid assigned
// on creation; Order always equals the section's position.
type Section struct {
	ID          string        `json:"id"`
	Order       int           `json:"order"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []SectionItem `json:"items"`
}

func (s *Section) Key() string    { return s.ID }
func (s *Section) SetOrder(i int) { s.Order = i }

// SectionItem places an item inside a section.
type SectionItem struct {
	Order int     `json:"order"`
	Item  ItemRef `json:"item"`
	Actif bool    `json:"actif"`
}

func (si *SectionItem) Key() string    { return ItemKey(si.Item.RefID()) }
func (si *SectionItem) SetOrder(i int) { si.Order = i }

// ItemKey is the ordering key of a section item for the given item id.
func ItemKey(itemID uint64) string { return strconv.FormatUint(itemID, 10) }

// ItemIDs returns the ids of every item referenced by the catalog, in order
// of first appearance.
func (c *Catalog) ItemIDs() []uint64 {
	seen := make(map[uint64]bool)
	var ids []uint64
	for _, s := range c.Sections {
		for _, it := range s.Items {
			id := it.Item.RefID()
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := *c
	out.Days = append(make([]string, 0, len(c.Days)), c.Days...)
	out.Sections = make([]Section, len(c.Sections))
	for i, s := range c.Sections {
		s.Items = append(make([]SectionItem, 0, len(s.Items)), s.Items...)
		out.Sections[i] = s
	}
	return &out
}

// Detach returns a deep copy whose item and branch refs carry only ids, the
// form in which a catalog is persisted.
func (c *Catalog) Detach() *Catalog {
	out := c.Clone()
	out.Branch = out.Branch.Unresolve()
	for i := range out.Sections {
		for j := range out.Sections[i].Items {
			out.Sections[i].Items[j].Item = out.Sections[i].Items[j].Item.Unresolve()
		}
	}
	return out
}
