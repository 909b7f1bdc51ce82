package service

import (
	"context"
	"errors"

	"github.com/iliyamo/menu-catalog/internal/apperr"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/repository"
)

// Authorizer answers "does this user own that branch/company". The owner of
// a branch is the user who created its company. Answers are never cached.
type Authorizer struct {
	companies CompanyStore
}

func NewAuthorizer(companies CompanyStore) *Authorizer {
	return &Authorizer{companies: companies}
}

// CheckBranchOwner fails with NotFound when the branch does not exist and
// Forbidden when userID does not own it.
func (a *Authorizer) CheckBranchOwner(ctx context.Context, userID, branchID uint64) error {
	_, _, err := a.ownedBranch(ctx, userID, branchID)
	return err
}

// CheckCompanyOwner fails with NotFound when the company does not exist and
// Forbidden when userID did not create it.
func (a *Authorizer) CheckCompanyOwner(ctx context.Context, userID, companyID uint64) (*model.Company, error) {
	company, err := a.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, storeError("load company", err)
	}
	if company.CreatedBy != userID {
		return nil, apperr.Forbidden("Forbidden, you are not the owner of this company")
	}
	return company, nil
}

func (a *Authorizer) ownedBranch(ctx context.Context, userID, branchID uint64) (*model.Branch, *model.Company, error) {
	branch, err := a.companies.GetBranch(ctx, branchID)
	if err != nil {
		return nil, nil, storeError("load branch", err)
	}
	company, err := a.companies.GetByID(ctx, branch.CompanyID)
	if errors.Is(err, repository.ErrCompanyNotFound) {
		return nil, nil, apperr.Forbidden("Forbidden, branch has no company")
	}
	if err != nil {
		return nil, nil, storeError("load company", err)
	}
	if company.CreatedBy != userID {
		return nil, nil, apperr.Forbidden("Forbidden, you are not the owner of this branch")
	}
	return branch, company, nil
}
