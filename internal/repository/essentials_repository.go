package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/menu-catalog/internal/model"
)

// EssentialsRepo holds the reference data items point at: ingredients,
// allergens and keywords.
type EssentialsRepo struct {
	db *sql.DB
}

func NewEssentialsRepo(db *sql.DB) *EssentialsRepo {
	return &EssentialsRepo{db: db}
}

// AllergensByCompany returns the allergens owned by a company.
func (r *EssentialsRepo) AllergensByCompany(ctx context.Context, companyID uint64) ([]model.Allergen, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, company_id FROM allergens WHERE company_id = ? ORDER BY id", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Allergen{}
	for rows.Next() {
		a, err := scanAllergen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// KeywordsByCompany returns the keywords owned by a company.
func (r *EssentialsRepo) KeywordsByCompany(ctx context.Context, companyID uint64) ([]model.Keyword, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, label, icon, company_id FROM keywords WHERE company_id = ? ORDER BY id", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Keyword{}
	for rows.Next() {
		var k model.Keyword
		if err := rows.Scan(&k.ID, &k.Label, &k.Icon, &k.CompanyID); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *EssentialsRepo) CreateIngredient(ctx context.Context, g *model.Ingredient) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO ingredients (company_id, name) VALUES (?, ?)", g.CompanyID, g.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	g.ID = uint64(id)
	return err
}

func (r *EssentialsRepo) CreateAllergen(ctx context.Context, a *model.Allergen) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO allergens (company_id, name) VALUES (?, ?)", a.CompanyID, a.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	a.ID = uint64(id)
	return err
}

func (r *EssentialsRepo) CreateKeyword(ctx context.Context, k *model.Keyword) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO keywords (company_id, label, icon) VALUES (?, ?, ?)", k.CompanyID, k.Label, k.Icon)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	k.ID = uint64(id)
	return err
}
