// Package reconcile decides, per incoming device record, whether to insert,
// update or skip it, and keeps the per-device change history.
//
// DetectChange is a pure comparison over a fixed, ordered table of fields:
// LastEnrollment, UserId, DeviceName, OsVersion, SerialNumber and
// Manufacturer. Each differing field contributes a "Field:old=>new"
// fragment; the joined text is clipped to model.MaxChangeTextLen
// characters. LastEnrollment only counts when the incoming time is later.
//
// Engine.Reconcile runs one company/source batch:
//
//	engine := reconcile.NewEngine(stores, identity.NewResolver(stores.Users))
//	res, err := engine.Reconcile(ctx, company.ID, devices)
//
// Devices are handled one at a time. Lookup-then-write on the natural key is
// not atomic, so two overlapping calls for the same company can race; the
// sync driver serialises runs per company to avoid that within a process.
package reconcile
