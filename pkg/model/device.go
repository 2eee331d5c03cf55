package model

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxChangeTextLen bounds Device.LastUpdatedDesc and DeviceChangeLog.UpdateText.
const MaxChangeTextLen = 250

// ErrInvalidDevice is returned by Device.Validate.
var ErrInvalidDevice = errors.New("invalid device record")

// Device is an endpoint reported by a source. The pair (DeviceID, CompanyID)
// is the natural key; ID is assigned by the store and kept across updates.
type Device struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	DeviceID            string     `gorm:"column:device_id;not null;uniqueIndex:idx_devices_company_device,priority:2" json:"device_id"`
	CompanyID           uint       `gorm:"column:company_id;not null;uniqueIndex:idx_devices_company_device,priority:1" json:"company_id"`
	DeviceName          string     `json:"device_name"`
	UserID              uint       `gorm:"column:user_id" json:"user_id"`
	FirstEnrollment     *time.Time `json:"first_enrollment,omitempty"`
	LastEnrollment      *time.Time `json:"last_enrollment,omitempty"`
	LastSync            *time.Time `json:"last_sync,omitempty"`
	Platform            string     `json:"platform"`
	OsVersion           string     `gorm:"column:os_version" json:"os_version"`
	Manufacturer        string     `json:"manufacturer"`
	Model               string     `json:"model"`
	SerialNumber        string     `json:"serial_number"`
	TotalStorageBytes   int64      `json:"total_storage_bytes"`
	FreeStorageBytes    int64      `json:"free_storage_bytes"`
	PhysicalMemoryBytes int64      `json:"physical_memory_bytes"`
	Source              string     `gorm:"not null" json:"source"`
	Archived            bool       `gorm:"not null;default:false" json:"archived"`
	LastUpdated         *time.Time `json:"last_updated,omitempty"`
	LastUpdatedDesc     string     `gorm:"size:250" json:"last_updated_desc"`

	// SourceUser carries the owner reported by the source until identity
	// resolution replaces it with UserID.
	SourceUser *SourceUser `gorm:"-" json:"-"`
}

func (Device) TableName() string {
	return "devices"
}

// UserRef returns the external user reference the device was reported with.
func (d *Device) UserRef() string {
	if d.SourceUser == nil {
		return UnknownUserRef
	}
	return NormalizeUserRef(d.SourceUser.ExternalRef)
}

// Validate checks that the natural key is populated.
func (d *Device) Validate() error {
	if d.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrInvalidDevice)
	}
	if d.CompanyID == 0 {
		return fmt.Errorf("%w: device %q has no company", ErrInvalidDevice, d.DeviceID)
	}
	return nil
}

// DeviceChangeLog is an append-only record of one detected change.
type DeviceChangeLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeviceID   uint      `gorm:"column:device_id;not null;index" json:"device_id"`
	UpdateTime time.Time `gorm:"not null" json:"update_time"`
	UpdateText string    `gorm:"size:250" json:"update_text"`
}

func (DeviceChangeLog) TableName() string {
	return "device_change_logs"
}

// TruncateChangeText clips s to its first MaxChangeTextLen characters.
func TruncateChangeText(s string) string {
	if utf8.RuneCountInString(s) <= MaxChangeTextLen {
		return s
	}
	return string([]rune(s)[:MaxChangeTextLen])
}
