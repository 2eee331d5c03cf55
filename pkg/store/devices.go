package store

import (
	"context"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
)

// DeviceStore abstracts device storage keyed by (device id, company).
type DeviceStore interface {
	// FindDevice returns ErrNotFound if no device has the given natural key.
	FindDevice(ctx context.Context, companyID uint, deviceID string) (*model.Device, error)

	// CreateDevice inserts a new row and sets device.ID.
	CreateDevice(ctx context.Context, device *model.Device) error

	// UpdateDevice overwrites every column of the row identified by device.ID.
	UpdateDevice(ctx context.Context, device *model.Device) error

	// ListDevices returns the devices of one company, or of all companies
	// when companyID is zero.
	ListDevices(ctx context.Context, companyID uint) ([]model.Device, error)
}

// ChangeLogStore abstracts the append-only device change history.
type ChangeLogStore interface {
	AppendChangeLog(ctx context.Context, entry *model.DeviceChangeLog) error

	// ListChangeLog returns the entries of one device, oldest first.
	ListChangeLog(ctx context.Context, deviceID uint) ([]model.DeviceChangeLog, error)
}
