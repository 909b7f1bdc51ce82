package repository

import "database/sql"

// Set groups the MySQL repositories sharing one connection pool.
type Set struct {
	Users      *UserRepo
	Companies  *CompanyRepo
	Items      *ItemRepo
	Essentials *EssentialsRepo
	Catalogs   *CatalogRepo
}

func Repositories(db *sql.DB) Set {
	return Set{
		Users:      NewUserRepo(db),
		Companies:  NewCompanyRepo(db),
		Items:      NewItemRepo(db),
		Essentials: NewEssentialsRepo(db),
		Catalogs:   NewCatalogRepo(db),
	}
}
