// Package model defines the canonical inventory schema every source is
// mapped into, and its GORM mapping.
//
// # Models
//
//   - Company: tenant root carrying encrypted source credentials
//   - User: device owner, unique per (ExternalRef, CompanyID)
//   - Device: endpoint, unique per (DeviceID, CompanyID)
//   - DeviceChangeLog: append-only diff history of a device
//
// Company credentials are encrypted in BeforeSave and decrypted in AfterFind
// with the cipher found on the statement context (see secrets.WithCipher).
package model
