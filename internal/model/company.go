package model

import "time"

// Company is a restaurant business. CreatedBy is the owning user; only that
// user may change the company's branches and catalogs.
type Company struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedBy uint64    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Branch is one location of a company.
type Branch struct {
	ID        uint64    `json:"id"`
	CompanyID uint64    `json:"company"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Country   string    `json:"country"`
	NbTable   int       `json:"nbTable"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
