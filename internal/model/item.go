package model

import "time"

// Item is a dish or drink of a company. Catalog sections reference items by
// id; the item itself is shared between catalogs.
type Item struct {
	ID            uint64      `json:"id"`
	CompanyID     uint64      `json:"company"`
	BranchID      *uint64     `json:"branch,omitempty"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Image         string      `json:"image,omitempty"`
	Available     bool        `json:"available"`
	Variations    []Variation `json:"variations"`
	IngredientIDs []uint64    `json:"ingredients"`
	AllergenIDs   []uint64    `json:"allergens"`
	KeywordIDs    []uint64    `json:"keywords"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Variation is a priced size or option of an item. Price is in cents.
type Variation struct {
	Label string `json:"label"`
	Price int64  `json:"price"`
}

// ItemDetail is an item with every cross reference loaded, as served to
// customers.
type ItemDetail struct {
	Item
	Ingredients []Ingredient `json:"ingredients"`
	Allergens   []Allergen   `json:"allergens"`
	Keywords    []Keyword    `json:"keywords"`
	Branch      *Branch      `json:"branch,omitempty"`
	Company     *Company     `json:"company"`
}

type Ingredient struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	CompanyID uint64 `json:"company"`
}

// Allergen may be global (CompanyID nil) or belong to one company.
type Allergen struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	CompanyID *uint64 `json:"company,omitempty"`
}

type Keyword struct {
	ID        uint64 `json:"id"`
	Label     string `json:"label"`
	Icon      string `json:"icon"`
	CompanyID uint64 `json:"company"`
}
