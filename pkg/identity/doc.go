// Package identity resolves device owners.
//
// Every source reports the owner of a device as an external reference plus
// optional details. The Resolver turns that into the stable internal id of a
// User row scoped to the company:
//
//	id, err := identity.NewResolver(users).ResolveUser(ctx, 7, "U9", &model.SourceUser{
//	    DisplayName: "Ada Lovelace",
//	    Email:       "ada@example.com",
//	})
//
// A missing reference maps to the per-company "UNKNOWN" placeholder, so
// ownerless devices of one company all share a single user row.
//
// The lookup-then-insert sequence is not atomic. Two runs resolving the same
// key concurrently rely on the unique index on (company_id, external_ref) to
// reject the second insert, which then surfaces as a resolution failure for
// that device only.
package identity
