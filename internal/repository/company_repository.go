package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/menu-catalog/internal/model"
)

// CompanyRepo reads and writes companies and their branches.
type CompanyRepo struct {
	db *sql.DB
}

func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

const companyColumns = "id, name, address, created_by, created_at, updated_at"
const branchColumns = "id, company_id, name, address, phone, country, nb_table, created_at, updated_at"

func scanCompany(row rowScanner) (*model.Company, error) {
	var c model.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanBranch(row rowScanner) (*model.Branch, error) {
	var b model.Branch
	if err := row.Scan(&b.ID, &b.CompanyID, &b.Name, &b.Address, &b.Phone, &b.Country, &b.NbTable, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CreateCompany inserts a company owned by c.CreatedBy. Company names are
// unique; a clash yields ErrDuplicate.
func (r *CompanyRepo) CreateCompany(ctx context.Context, c *model.Company) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO companies (name, address, created_by) VALUES (?, ?, ?)",
		c.Name, c.Address, c.CreatedBy)
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
	c.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at, updated_at FROM companies WHERE id = ?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CompanyRepo) GetByID(ctx context.Context, id uint64) (*model.Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = ?", id))
}

func (r *CompanyRepo) GetByName(ctx context.Context, name string) (*model.Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE name = ?", name))
}

// CreateBranch inserts a branch under b.CompanyID.
func (r *CompanyRepo) CreateBranch(ctx context.Context, b *model.Branch) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO branches (company_id, name, address, phone, country, nb_table) VALUES (?, ?, ?, ?, ?, ?)",
		b.CompanyID, b.Name, b.Address, b.Phone, b.Country, b.NbTable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at, updated_at FROM branches WHERE id = ?", b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *CompanyRepo) GetBranch(ctx context.Context, id uint64) (*model.Branch, error) {
	return scanBranch(r.db.QueryRowContext(ctx, "SELECT "+branchColumns+" FROM branches WHERE id = ?", id))
}

// FirstBranch returns the oldest branch of a company.
func (r *CompanyRepo) FirstBranch(ctx context.Context, companyID uint64) (*model.Branch, error) {
	return scanBranch(r.db.QueryRowContext(ctx,
		"SELECT "+branchColumns+" FROM branches WHERE company_id = ? ORDER BY id LIMIT 1", companyID))
}

// ListBranches returns every branch of a company ordered by id.
func (r *CompanyRepo) ListBranches(ctx context.Context, companyID uint64) ([]*model.Branch, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+branchColumns+" FROM branches WHERE company_id = ? ORDER BY id", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Branch{}
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
