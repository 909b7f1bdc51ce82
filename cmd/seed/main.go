// Command seed fills an empty MySQL database with a demo company: an owner
// and a manager account, the Esperoo company with one branch, a few
// allergens, keywords and items, and a lunch catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/database"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/menu"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/repository"
	"github.com/iliyamo/menu-catalog/internal/service"
)

func main() {
	password := flag.String("password", "12345678", "password of the seeded accounts")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.StoreDriver != config.StoreMySQL {
		log.Fatal("seed needs STORE_DRIVER=mysql", "driver", cfg.StoreDriver)
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", "error", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := seed(ctx, cfg, log, repository.Repositories(db), *password); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("seed complete")
}

func seed(ctx context.Context, cfg config.Config, log *logger.Logger, r repository.Set, password string) error {
	adminID, err := r.Users.Create(ctx, "super admin", "admin@esperoo.fr", password, model.RoleOwner, cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		log.Info("admin already present, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := r.Users.Create(ctx, "super manager", "manager@esperoo.fr", password, model.RoleManager, cfg.BcryptCost); err != nil {
		return err
	}

	company := &model.Company{Name: "Esperoo", Address: "Random Street 7", CreatedBy: adminID}
	if err := r.Companies.CreateCompany(ctx, company); err != nil {
		return err
	}
	branch := &model.Branch{CompanyID: company.ID, Name: "Esperoo Tunis", Address: "Random Street 7", Phone: "123456789", Country: "TN", NbTable: 12}
	if err := r.Companies.CreateBranch(ctx, branch); err != nil {
		return err
	}

	gluten := &model.Allergen{Name: "Gluten", CompanyID: &company.ID}
	if err := r.Essentials.CreateAllergen(ctx, gluten); err != nil {
		return err
	}
	vegan := &model.Keyword{Label: "vegan", Icon: "leaf", CompanyID: company.ID}
	if err := r.Essentials.CreateKeyword(ctx, vegan); err != nil {
		return err
	}
	tomato := &model.Ingredient{Name: "Tomato", CompanyID: company.ID}
	if err := r.Essentials.CreateIngredient(ctx, tomato); err != nil {
		return err
	}

	var starters, mains []uint64
	for _, it := range []*model.Item{
		{Name: "Bruschetta", Variations: []model.Variation{{Label: "4 pcs", Price: 650}}, IngredientIDs: []uint64{tomato.ID}, AllergenIDs: []uint64{gluten.ID}},
		{Name: "Gazpacho", Variations: []model.Variation{{Label: "bowl", Price: 550}}, IngredientIDs: []uint64{tomato.ID}, KeywordIDs: []uint64{vegan.ID}},
		{Name: "Couscous royal", Variations: []model.Variation{{Label: "plate", Price: 1800}}},
	} {
		it.CompanyID = company.ID
		it.BranchID = &branch.ID
		it.Available = true
		if err := r.Items.Create(ctx, it); err != nil {
			return err
		}
		if it.Name == "Couscous royal" {
			mains = append(mains, it.ID)
		} else {
			starters = append(starters, it.ID)
		}
	}

	catalogs := service.NewCatalogService(r.Catalogs, r.Companies, r.Items, r.Essentials, service.WithLogger(log))
	c, err := catalogs.CreateCatalog(ctx, adminID, service.CatalogInput{
		Name:     "Lunch",
		BranchID: branch.ID,
		Days:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		Sections: []menu.NewSection{
			{Order: 0, Name: "Starters", ItemIDs: starters},
			{Order: 1, Name: "Mains", ItemIDs: mains},
		},
	})
	if err != nil {
		return err
	}
	log.Info("seeded", "admin_id", adminID, "company_id", company.ID, "branch_id", branch.ID, "catalog_id", c.ID)
	return nil
}
