package model

import "time"

// UnknownUserRef is the external reference used when a source reports no user.
// Each company has at most one user row carrying it.
const UnknownUserRef = "UNKNOWN"

// User is a person owning devices within exactly one company. The pair
// (ExternalRef, CompanyID) is the natural key.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ExternalRef   string     `gorm:"column:external_ref;not null;uniqueIndex:idx_users_company_ref,priority:2" json:"external_ref"`
	CompanyID     uint       `gorm:"column:company_id;not null;uniqueIndex:idx_users_company_ref,priority:1" json:"company_id"`
	DisplayName   string     `json:"display_name"`
	PrincipalName string     `gorm:"column:principal_name" json:"principal_name"`
	GivenName     string     `json:"given_name"`
	Email         string     `json:"email"`
	Department    string     `json:"department"`
	Archived      bool       `gorm:"not null;default:false" json:"archived"`
	LastUpdated   *time.Time `json:"last_updated,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// SourceUser is the owner information a source attaches to a device record.
// It is never persisted directly; the identity resolver turns it into a User.
type SourceUser struct {
	ExternalRef   string
	DisplayName   string
	PrincipalName string
	GivenName     string
	Email         string
	Department    string
	Archived      bool
}

// NormalizeUserRef maps an absent reference to UnknownUserRef.
func NormalizeUserRef(ref string) string {
	if ref == "" {
		return UnknownUserRef
	}
	return ref
}
