// Package memstore is an in-memory implementation of the repositories, used
// when STORE_DRIVER=memory and by tests. It follows the same contracts as
// the MySQL repositories, including the catalog version check on save.
package memstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/repository"
	"github.com/iliyamo/menu-catalog/internal/utils"
)

type Store struct {
	mu          sync.RWMutex
	seq         uint64
	users       map[uint64]model.User
	companies   map[uint64]model.Company
	branches    map[uint64]model.Branch
	items       map[uint64]*model.Item
	ingredients map[uint64]model.Ingredient
	allergens   map[uint64]model.Allergen
	keywords    map[uint64]model.Keyword
	catalogs    map[uint64]*model.Catalog
}

func New() *Store {
	return &Store{
		users:       map[uint64]model.User{},
		companies:   map[uint64]model.Company{},
		branches:    map[uint64]model.Branch{},
		items:       map[uint64]*model.Item{},
		ingredients: map[uint64]model.Ingredient{},
		allergens:   map[uint64]model.Allergen{},
		keywords:    map[uint64]model.Keyword{},
		catalogs:    map[uint64]*model.Catalog{},
	}
}

func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	return slices.Sorted(maps.Keys(m))
}

func (s *Store) Catalogs() *Catalogs     { return &Catalogs{s} }
func (s *Store) Companies() *Companies   { return &Companies{s} }
func (s *Store) Items() *Items           { return &Items{s} }
func (s *Store) Essentials() *Essentials { return &Essentials{s} }
func (s *Store) Users() *Users           { return &Users{s} }

// Catalogs mirrors repository.CatalogRepo.
type Catalogs struct{ s *Store }

func (r *Catalogs) Create(_ context.Context, c *model.Catalog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.Days == nil {
		c.Days = []string{}
	}
	now := time.Now().UTC()
	c.ID = r.s.nextID()
	c.Version = 0
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.catalogs[c.ID] = c.Detach()
	return nil
}

func (r *Catalogs) GetByID(_ context.Context, id uint64) (*model.Catalog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.catalogs[id]
	if !ok {
		return nil, repository.ErrCatalogNotFound
	}
	return c.Clone(), nil
}

func (r *Catalogs) BranchIDOf(_ context.Context, id uint64) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.catalogs[id]
	if !ok {
		return 0, repository.ErrCatalogNotFound
	}
	return c.Branch.RefID(), nil
}

func (r *Catalogs) ListByBranch(_ context.Context, branchID uint64) ([]*model.Catalog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*model.Catalog{}
	for _, id := range sortedKeys(r.s.catalogs) {
		if c := r.s.catalogs[id]; c.Branch.RefID() == branchID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *Catalogs) FirstByBranch(ctx context.Context, branchID uint64) (*model.Catalog, error) {
	list, _ := r.ListByBranch(ctx, branchID)
	if len(list) == 0 {
		return nil, repository.ErrCatalogNotFound
	}
	return list[0], nil
}

func (r *Catalogs) Save(_ context.Context, c *model.Catalog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.catalogs[c.ID]
	if !ok {
		return repository.ErrCatalogNotFound
	}
	if cur.Version != c.Version {
		return repository.ErrVersionConflict
	}
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	stored := c.Detach()
	stored.Branch = cur.Branch
	stored.CreatedAt = cur.CreatedAt
	r.s.catalogs[c.ID] = stored
	return nil
}

// Companies mirrors repository.CompanyRepo.
type Companies struct{ s *Store }

func (r *Companies) CreateCompany(_ context.Context, c *model.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.companies {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	c.ID = r.s.nextID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.companies[c.ID] = *c
	return nil
}

func (r *Companies) GetByID(_ context.Context, id uint64) (*model.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, repository.ErrCompanyNotFound
	}
	return &c, nil
}

func (r *Companies) GetByName(_ context.Context, name string) (*model.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.companies {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, repository.ErrCompanyNotFound
}

func (r *Companies) CreateBranch(_ context.Context, b *model.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	b.ID = r.s.nextID()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.branches[b.ID] = *b
	return nil
}

func (r *Companies) GetBranch(_ context.Context, id uint64) (*model.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.branches[id]
	if !ok {
		return nil, repository.ErrBranchNotFound
	}
	return &b, nil
}

func (r *Companies) ListBranches(_ context.Context, companyID uint64) ([]*model.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*model.Branch{}
	for _, id := range sortedKeys(r.s.branches) {
		if b := r.s.branches[id]; b.CompanyID == companyID {
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r *Companies) FirstBranch(ctx context.Context, companyID uint64) (*model.Branch, error) {
	list, _ := r.ListBranches(ctx, companyID)
	if len(list) == 0 {
		return nil, repository.ErrBranchNotFound
	}
	return list[0], nil
}

// Items mirrors repository.ItemRepo.
type Items struct{ s *Store }

func copyItem(it *model.Item) *model.Item {
	cp := *it
	cp.Variations = append([]model.Variation{}, it.Variations...)
	cp.IngredientIDs = append([]uint64{}, it.IngredientIDs...)
	cp.AllergenIDs = append([]uint64{}, it.AllergenIDs...)
	cp.KeywordIDs = append([]uint64{}, it.KeywordIDs...)
	return &cp
}

func (r *Items) Create(_ context.Context, it *model.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.items {
		if existing.CompanyID == it.CompanyID && existing.Name == it.Name {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	it.ID = r.s.nextID()
	it.CreatedAt, it.UpdatedAt = now, now
	r.s.items[it.ID] = copyItem(it)
	return nil
}

func (r *Items) GetByID(_ context.Context, id uint64) (*model.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return copyItem(it), nil
}

func (r *Items) GetByIDs(_ context.Context, ids []uint64) (map[uint64]*model.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[uint64]*model.Item, len(ids))
	for _, id := range ids {
		if it, ok := r.s.items[id]; ok {
			out[id] = copyItem(it)
		}
	}
	return out, nil
}

func (r *Items) GetDetail(_ context.Context, id uint64) (*model.ItemDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	d := &model.ItemDetail{Item: *copyItem(it), Ingredients: []model.Ingredient{}, Allergens: []model.Allergen{}, Keywords: []model.Keyword{}}
	for _, gid := range it.IngredientIDs {
		if g, ok := r.s.ingredients[gid]; ok {
			d.Ingredients = append(d.Ingredients, g)
		}
	}
	for _, aid := range it.AllergenIDs {
		if a, ok := r.s.allergens[aid]; ok {
			d.Allergens = append(d.Allergens, a)
		}
	}
	for _, kid := range it.KeywordIDs {
		if k, ok := r.s.keywords[kid]; ok {
			d.Keywords = append(d.Keywords, k)
		}
	}
	if c, ok := r.s.companies[it.CompanyID]; ok {
		d.Company = &c
	}
	if it.BranchID != nil {
		if b, ok := r.s.branches[*it.BranchID]; ok {
			d.Branch = &b
		}
	}
	return d, nil
}

// Essentials mirrors repository.EssentialsRepo.
type Essentials struct{ s *Store }

func (r *Essentials) AllergensByCompany(_ context.Context, companyID uint64) ([]model.Allergen, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Allergen{}
	for _, id := range sortedKeys(r.s.allergens) {
		if a := r.s.allergens[id]; a.CompanyID != nil && *a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Essentials) KeywordsByCompany(_ context.Context, companyID uint64) ([]model.Keyword, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Keyword{}
	for _, id := range sortedKeys(r.s.keywords) {
		if k := r.s.keywords[id]; k.CompanyID == companyID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *Essentials) CreateIngredient(_ context.Context, g *model.Ingredient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g.ID = r.s.nextID()
	r.s.ingredients[g.ID] = *g
	return nil
}

func (r *Essentials) CreateAllergen(_ context.Context, a *model.Allergen) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.nextID()
	r.s.allergens[a.ID] = *a
	return nil
}

func (r *Essentials) CreateKeyword(_ context.Context, k *model.Keyword) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k.ID = r.s.nextID()
	r.s.keywords[k.ID] = *k
	return nil
}

// Users mirrors repository.UserRepo.
type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	now := time.Now().UTC()
	u := model.User{ID: r.s.nextID(), Name: strings.TrimSpace(name), Email: email, PasswordHash: hash,
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now}
	r.s.users[u.ID] = u
	return u.ID, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (r *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}
