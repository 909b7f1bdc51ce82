package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/menu-catalog/internal/database"
	"github.com/iliyamo/menu-catalog/internal/model"
)

func TestSectionsColumnRoundTrip(t *testing.T) {
	in := []model.Section{
		{ID: "a", Order: 0, Name: "Starters", Items: []model.SectionItem{
			{Order: 0, Item: model.Resolved(7, &model.Item{ID: 7, Name: "Soup"}), Actif: true},
			{Order: 1, Item: model.Unresolved[model.Item](9)},
		}},
		{ID: "b", Order: 1, Name: "Mains"},
	}
	b, err := encodeSections(in)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "Soup", "resolved items are stored by id")

	out, err := decodeSections(b)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(7), out[0].Items[0].Item.RefID())
	assert.False(t, out[0].Items[0].Item.IsResolved())
	assert.True(t, out[0].Items[0].Actif)
	assert.False(t, out[0].Items[1].Actif)
	assert.NotNil(t, out[1].Items)

	empty, err := decodeSections(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
	assert.Equal(t, []any{uint64(1), uint64(2)}, idArgs([]uint64{1, 2}))
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(errors.New("boom")))
}

// openTestDB connects to TEST_MYSQL_DSN and applies the migrations. The
// test is skipped when the variable is unset.
func openTestDB(t *testing.T) Set {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	db, err := database.OpenDSN(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return Repositories(db)
}

func TestMySQLCatalogSave(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	uid, err := r.Users.Create(ctx, "owner", "owner-"+suffix+"@example.com", "12345678", model.RoleOwner, 4)
	require.NoError(t, err)
	_, err = r.Users.Create(ctx, "owner", "owner-"+suffix+"@example.com", "12345678", model.RoleOwner, 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	company := &model.Company{Name: "Company " + suffix, CreatedBy: uid}
	require.NoError(t, r.Companies.CreateCompany(ctx, company))
	branch := &model.Branch{CompanyID: company.ID, Name: "Main"}
	require.NoError(t, r.Companies.CreateBranch(ctx, branch))
	soup := &model.Item{CompanyID: company.ID, Name: "Soup " + suffix, Available: true,
		Variations: []model.Variation{{Label: "bowl", Price: 500}}}
	require.NoError(t, r.Items.Create(ctx, soup))

	c := &model.Catalog{Name: "Lunch", Branch: model.Unresolved[model.Branch](branch.ID), Days: []string{"monday"}, Available: true}
	require.NoError(t, r.Catalogs.Create(ctx, c))
	require.NotZero(t, c.ID)

	loaded, err := r.Catalogs.GetByID(ctx, c.ID)
	require.NoError(t, err)
	loaded.Sections = []model.Section{{ID: uuid.NewString(), Name: "Starters",
		Items: []model.SectionItem{{Item: model.Unresolved[model.Item](soup.ID), Actif: true}}}}
	stale := loaded.Clone()
	require.NoError(t, r.Catalogs.Save(ctx, loaded))
	assert.Equal(t, stale.Version+1, loaded.Version)

	assert.ErrorIs(t, r.Catalogs.Save(ctx, stale), ErrVersionConflict)

	again, err := r.Catalogs.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, again.Sections, 1)
	assert.Equal(t, soup.ID, again.Sections[0].Items[0].Item.RefID())

	branchID, err := r.Catalogs.BranchIDOf(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, branch.ID, branchID)

	_, err = r.Catalogs.GetByID(ctx, 1<<40)
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	missing := &model.Catalog{ID: 1 << 40}
	assert.ErrorIs(t, r.Catalogs.Save(ctx, missing), ErrCatalogNotFound)

	items, err := r.Items.GetByIDs(ctx, []uint64{soup.ID})
	require.NoError(t, err)
	require.Contains(t, items, soup.ID)
	assert.Equal(t, []model.Variation{{Label: "bowl", Price: 500}}, items[soup.ID].Variations)
}
