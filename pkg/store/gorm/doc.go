// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Lookups that match no row return store.ErrNotFound; connection-level
// failures are wrapped with store.ErrUnavailable.
package gorm
