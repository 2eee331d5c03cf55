// Package store provides storage abstractions for the inventory.
//
// The reconciliation engine and the HTTP surface depend only on these
// interfaces, so they can be exercised against mocks or an in-memory
// database. Implementations live in subpackages.
//
// # Available Stores
//
//   - CompanyStore: tenants and their encrypted credentials
//   - UserStore: device owners keyed by (external ref, company)
//   - DeviceStore: devices keyed by (device id, company)
//   - ChangeLogStore: append-only diff history
//   - HealthStore: connectivity probe
//
// # Usage
//
//	device, err := stores.Devices.FindDevice(ctx, 7, "D1")
//	if errors.Is(err, store.ErrNotFound) {
//	    // first sighting
//	}
package store
