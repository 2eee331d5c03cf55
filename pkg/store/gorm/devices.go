package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// Ensure DeviceStore implements store.DeviceStore
var _ store.DeviceStore = (*DeviceStore)(nil)

// DeviceStore implements store.DeviceStore using GORM
type DeviceStore struct {
	db *gorm.DB
}

// NewDeviceStore creates a new DeviceStore
func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

func (s *DeviceStore) FindDevice(ctx context.Context, companyID uint, deviceID string) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND device_id = ?", companyID, deviceID).
		First(&device).Error
	if err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (s *DeviceStore) CreateDevice(ctx context.Context, device *model.Device) error {
	return translate(s.db.WithContext(ctx).Create(device).Error)
}

// UpdateDevice writes every column, zero values included, so the incoming
// record fully supersedes the stored one.
func (s *DeviceStore) UpdateDevice(ctx context.Context, device *model.Device) error {
	if device.ID == 0 {
		return store.ErrNotFound
	}
	tx := s.db.WithContext(ctx).Model(device).Select("*").Omit("id").Updates(device)
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *DeviceStore) ListDevices(ctx context.Context, companyID uint) ([]model.Device, error) {
	var devices []model.Device
	q := s.db.WithContext(ctx).Order("id")
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	return devices, translate(q.Find(&devices).Error)
}

// Ensure ChangeLogStore implements store.ChangeLogStore
var _ store.ChangeLogStore = (*ChangeLogStore)(nil)

// ChangeLogStore implements store.ChangeLogStore using GORM
type ChangeLogStore struct {
	db *gorm.DB
}

// NewChangeLogStore creates a new ChangeLogStore
func NewChangeLogStore(db *gorm.DB) *ChangeLogStore {
	return &ChangeLogStore{db: db}
}

func (s *ChangeLogStore) AppendChangeLog(ctx context.Context, entry *model.DeviceChangeLog) error {
	entry.UpdateText = model.TruncateChangeText(entry.UpdateText)
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

func (s *ChangeLogStore) ListChangeLog(ctx context.Context, deviceID uint) ([]model.DeviceChangeLog, error) {
	var entries []model.DeviceChangeLog
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("id").Find(&entries).Error
	return entries, translate(err)
}
