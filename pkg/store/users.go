package store

import (
	"context"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
)

// UserStore abstracts device owner storage keyed by (external ref, company).
type UserStore interface {
	// FindUser returns ErrNotFound if no user has the given natural key.
	FindUser(ctx context.Context, companyID uint, externalRef string) (*model.User, error)

	CreateUser(ctx context.Context, user *model.User) error

	// UpdateUserDepartment refreshes the department of an existing user.
	UpdateUserDepartment(ctx context.Context, id uint, department string) error

	ListUsers(ctx context.Context, companyID uint) ([]model.User, error)
}
