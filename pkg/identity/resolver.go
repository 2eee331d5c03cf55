package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// Resolver maps a source user reference to the internal user id within a
// company, creating the user on first sighting. Both sources share it.
type Resolver struct {
	users store.UserStore
	now   func() time.Time
}

// NewResolver creates a Resolver over the given user store.
func NewResolver(users store.UserStore) *Resolver {
	return &Resolver{users: users, now: time.Now}
}

// ResolveUser returns the internal id of the user identified by
// (externalRef, companyID). An empty reference resolves to the company's
// single UNKNOWN placeholder. details may be nil.
//
// At most one write happens per call: either the insert of a new user, or a
// department refresh of an existing one.
func (r *Resolver) ResolveUser(ctx context.Context, companyID uint, externalRef string, details *model.SourceUser) (uint, error) {
	ref := model.NormalizeUserRef(externalRef)
	if ref == model.UnknownUserRef {
		// Details without a reference can't be attributed to anyone.
		details = nil
	}

	existing, err := r.users.FindUser(ctx, companyID, ref)
	switch {
	case err == nil:
		if dept := departmentUpdate(existing, details); dept != "" {
			if err := r.users.UpdateUserDepartment(ctx, existing.ID, dept); err != nil {
				return 0, fmt.Errorf("refresh department of user %q: %w", ref, err)
			}
		}
		return existing.ID, nil
	case !errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("lookup user %q: %w", ref, err)
	}

	if err := r.users.CreateUser(ctx, r.newUser(companyID, ref, details)); err != nil {
		return 0, fmt.Errorf("create user %q: %w", ref, err)
	}

	// Re-read so the returned id is the one the store assigned.
	created, err := r.users.FindUser(ctx, companyID, ref)
	if err != nil {
		return 0, fmt.Errorf("reload user %q: %w", ref, err)
	}
	return created.ID, nil
}

func (r *Resolver) newUser(companyID uint, ref string, details *model.SourceUser) *model.User {
	now := r.now().UTC()
	user := &model.User{
		ExternalRef: ref,
		CompanyID:   companyID,
		LastUpdated: &now,
	}
	if details == nil {
		user.DisplayName = model.UnknownUserRef
		return user
	}
	user.DisplayName = details.DisplayName
	user.PrincipalName = details.PrincipalName
	user.GivenName = details.GivenName
	user.Email = details.Email
	user.Department = details.Department
	user.Archived = details.Archived
	return user
}

// departmentUpdate returns the department to store, or "" when nothing changes.
func departmentUpdate(existing *model.User, details *model.SourceUser) string {
	if details == nil || details.Department == "" || details.Department == existing.Department {
		return ""
	}
	return details.Department
}
