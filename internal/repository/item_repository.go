package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/menu-catalog/internal/model"
)

// ItemRepo stores items and their links to ingredients, allergens and
// keywords.
type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = "id, company_id, branch_id, name, description, image, available, variations, created_at, updated_at"

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		it         model.Item
		branchID   sql.NullInt64
		variations []byte
	)
	if err := row.Scan(&it.ID, &it.CompanyID, &branchID, &it.Name, &it.Description, &it.Image, &it.Available,
		&variations, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if branchID.Valid {
		b := uint64(branchID.Int64)
		it.BranchID = &b
	}
	it.Variations = []model.Variation{}
	if len(variations) > 0 {
		if err := json.Unmarshal(variations, &it.Variations); err != nil {
			return nil, fmt.Errorf("decode variations: %w", err)
		}
	}
	it.IngredientIDs, it.AllergenIDs, it.KeywordIDs = []uint64{}, []uint64{}, []uint64{}
	return &it, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

var itemLinks = []struct {
	table, column string
	field         func(*model.Item) *[]uint64
}{
	{"item_ingredients", "ingredient_id", func(it *model.Item) *[]uint64 { return &it.IngredientIDs }},
	{"item_allergens", "allergen_id", func(it *model.Item) *[]uint64 { return &it.AllergenIDs }},
	{"item_keywords", "keyword_id", func(it *model.Item) *[]uint64 { return &it.KeywordIDs }},
}

// Create inserts an item and its links in one transaction. Names are unique
// per company; a clash yields ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	if it.Variations == nil {
		it.Variations = []model.Variation{}
	}
	variations, err := json.Marshal(it.Variations)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var branchID sql.NullInt64
	if it.BranchID != nil {
		branchID = sql.NullInt64{Int64: int64(*it.BranchID), Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO items (company_id, branch_id, name, description, image, available, variations) VALUES (?, ?, ?, ?, ?, ?, ?)",
		it.CompanyID, branchID, it.Name, it.Description, it.Image, it.Available, variations)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)

	for _, link := range itemLinks {
		for _, ref := range *link.field(it) {
			q := fmt.Sprintf("INSERT INTO %s (item_id, %s) VALUES (?, ?)", link.table, link.column)
			if _, err := tx.ExecContext(ctx, q, it.ID, ref); err != nil {
				return fmt.Errorf("link %s: %w", link.table, err)
			}
		}
	}
	if err := tx.QueryRowContext(ctx, "SELECT created_at, updated_at FROM items WHERE id = ?", it.ID).
		Scan(&it.CreatedAt, &it.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID loads one item with its link ids.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
	items, err := r.GetByIDs(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	it, ok := items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return it, nil
}

// GetByIDs loads the given items keyed by id. Missing ids are absent from
// the map rather than reported as errors.
func (r *ItemRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Item, error) {
	out := make(map[uint64]*model.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := "SELECT " + itemColumns + " FROM items WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	found := make([]uint64, 0, len(out))
	for id := range out {
		found = append(found, id)
	}
	for _, link := range itemLinks {
		q := fmt.Sprintf("SELECT item_id, %s FROM %s WHERE item_id IN (%s) ORDER BY %s",
			link.column, link.table, placeholders(len(found)), link.column)
		if err := r.loadLinks(ctx, q, found, func(itemID, ref uint64) {
			f := link.field(out[itemID])
			*f = append(*f, ref)
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ItemRepo) loadLinks(ctx context.Context, q string, ids []uint64, add func(itemID, ref uint64)) error {
	rows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, ref uint64
		if err := rows.Scan(&itemID, &ref); err != nil {
			return err
		}
		add(itemID, ref)
	}
	return rows.Err()
}

// GetDetail loads an item with ingredients, allergens, keywords, branch and
// company resolved.
func (r *ItemRepo) GetDetail(ctx context.Context, id uint64) (*model.ItemDetail, error) {
	it, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &model.ItemDetail{Item: *it, Ingredients: []model.Ingredient{}, Allergens: []model.Allergen{}, Keywords: []model.Keyword{}}

	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.company_id FROM ingredients g
		 JOIN item_ingredients ii ON ii.ingredient_id = g.id WHERE ii.item_id = ? ORDER BY g.id`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var g model.Ingredient
		if err := rows.Scan(&g.ID, &g.Name, &g.CompanyID); err != nil {
			rows.Close()
			return nil, err
		}
		d.Ingredients = append(d.Ingredients, g)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.company_id FROM allergens a
		 JOIN item_allergens ia ON ia.allergen_id = a.id WHERE ia.item_id = ? ORDER BY a.id`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		a, err := scanAllergen(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		d.Allergens = append(d.Allergens, a)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT k.id, k.label, k.icon, k.company_id FROM keywords k
		 JOIN item_keywords ik ON ik.keyword_id = k.id WHERE ik.item_id = ? ORDER BY k.id`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k model.Keyword
		if err := rows.Scan(&k.ID, &k.Label, &k.Icon, &k.CompanyID); err != nil {
			rows.Close()
			return nil, err
		}
		d.Keywords = append(d.Keywords, k)
	}
	rows.Close()

	companies := NewCompanyRepo(r.db)
	if d.Company, err = companies.GetByID(ctx, it.CompanyID); err != nil && !errors.Is(err, ErrCompanyNotFound) {
		return nil, err
	}
	if it.BranchID != nil {
		if d.Branch, err = companies.GetBranch(ctx, *it.BranchID); err != nil && !errors.Is(err, ErrBranchNotFound) {
			return nil, err
		}
	}
	return d, nil
}

func scanAllergen(row rowScanner) (model.Allergen, error) {
	var (
		a       model.Allergen
		company sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.Name, &company); err != nil {
		return a, err
	}
	if company.Valid {
		c := uint64(company.Int64)
		a.CompanyID = &c
	}
	return a, nil
}
