package store

import (
	"context"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
)

// CompanyStore abstracts tenant storage.
type CompanyStore interface {
	// ListCompanies returns every company ordered by id.
	ListCompanies(ctx context.Context) ([]model.Company, error)

	// ListActiveCompanies returns the companies that are not archived.
	ListActiveCompanies(ctx context.Context) ([]model.Company, error)

	// FetchCompany returns ErrNotFound if the company doesn't exist.
	FetchCompany(ctx context.Context, id uint) (*model.Company, error)

	// SaveCompany inserts the company when ID is zero or unknown and
	// replaces it otherwise. LastUpdated is stamped on every save.
	SaveCompany(ctx context.Context, company *model.Company) (created bool, err error)
}
