package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
)

// ErrNoCipher is returned by the credential hooks when a company carrying
// credentials is saved or loaded without a cipher on the statement context.
var ErrNoCipher = errors.New("no credential cipher on database context")

// Company is a tenant whose devices and users are tracked in isolation.
// Credential fields hold plaintext in memory and ciphertext in the database.
type Company struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	GraphTenantID     []byte     `gorm:"column:graph_tenant_id" json:"-"`
	GraphClientID     []byte     `gorm:"column:graph_client_id" json:"-"`
	GraphClientSecret []byte     `gorm:"column:graph_client_secret" json:"-"`
	KandjiAPIKey      []byte     `gorm:"column:kandji_api_key" json:"-"`
	KandjiAPIURL      string     `gorm:"column:kandji_api_url" json:"kandji_api_url,omitempty"`
	Archived          bool       `gorm:"not null;default:false" json:"archived"`
	LastUpdated       *time.Time `json:"last_updated,omitempty"`

	// CredentialsErr is set by AfterFind when a stored credential could not
	// be decrypted. The credential fields are cleared in that case.
	CredentialsErr error `gorm:"-" json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

// Credentials is the decrypted credential bundle handed to source adapters.
type Credentials struct {
	CompanyID         uint
	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	KandjiAPIKey      string
	KandjiAPIURL      string
}

// HasGraph reports whether all three Graph credentials are present.
func (c Credentials) HasGraph() bool {
	return c.GraphTenantID != "" && c.GraphClientID != "" && c.GraphClientSecret != ""
}

// HasKandji reports whether a Kandji API key is present.
func (c Credentials) HasKandji() bool {
	return c.KandjiAPIKey != ""
}

func (c *Company) Credentials() Credentials {
	return Credentials{
		CompanyID:         c.ID,
		GraphTenantID:     string(c.GraphTenantID),
		GraphClientID:     string(c.GraphClientID),
		GraphClientSecret: string(c.GraphClientSecret),
		KandjiAPIKey:      string(c.KandjiAPIKey),
		KandjiAPIURL:      c.KandjiAPIURL,
	}
}

// CompanySummary is the credential-free view of a company returned to API clients.
type CompanySummary struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	HasTenantID     bool       `json:"tenant_id"`
	HasClientID     bool       `json:"client_id"`
	HasClientSecret bool       `json:"client_secret"`
	HasKandjiAPIKey bool       `json:"kandji_api_key"`
	KandjiAPIURL    string     `json:"kandji_api_url,omitempty"`
	Archived        bool       `json:"archived"`
	LastUpdated     *time.Time `json:"last_updated,omitempty"`
	CredentialsErr  string     `json:"credentials_error,omitempty"`
}

func (c *Company) Summary() CompanySummary {
	summary := CompanySummary{
		ID:              c.ID,
		Name:            c.Name,
		HasTenantID:     len(c.GraphTenantID) > 0,
		HasClientID:     len(c.GraphClientID) > 0,
		HasClientSecret: len(c.GraphClientSecret) > 0,
		HasKandjiAPIKey: len(c.KandjiAPIKey) > 0,
		KandjiAPIURL:    c.KandjiAPIURL,
		Archived:        c.Archived,
		LastUpdated:     c.LastUpdated,
	}
	if c.CredentialsErr != nil {
		summary.CredentialsErr = c.CredentialsErr.Error()
	}
	return summary
}

type credentialField struct {
	column string
	value  *[]byte
}

func (c *Company) credentialFields() []credentialField {
	return []credentialField{
		{"graph_tenant_id", &c.GraphTenantID},
		{"graph_client_id", &c.GraphClientID},
		{"graph_client_secret", &c.GraphClientSecret},
		{"kandji_api_key", &c.KandjiAPIKey},
	}
}

// credentialAAD binds a ciphertext to the column it is stored in.
func credentialAAD(column string) []byte {
	return []byte("company:" + column)
}

func (c *Company) transformCredentials(tx *gorm.DB, op func(secrets.Cipher, []byte, []byte) ([]byte, error)) error {
	var cipher secrets.Cipher
	for _, field := range c.credentialFields() {
		if len(*field.value) == 0 {
			continue
		}
		if cipher == nil {
			if cipher = cipherFor(tx); cipher == nil {
				return ErrNoCipher
			}
		}
		out, err := op(cipher, credentialAAD(field.column), *field.value)
		if err != nil {
			return fmt.Errorf("company %d %s: %w", c.ID, field.column, err)
		}
		*field.value = out
	}
	return nil
}

func encrypt(c secrets.Cipher, aad, value []byte) ([]byte, error) { return c.Encrypt(aad, value) }
func decrypt(c secrets.Cipher, aad, value []byte) ([]byte, error) { return c.Decrypt(aad, value) }

func (c *Company) BeforeSave(tx *gorm.DB) error {
	return c.transformCredentials(tx, encrypt)
}

// AfterSave restores plaintext on the in-memory value once the row is written.
func (c *Company) AfterSave(tx *gorm.DB) error {
	return c.transformCredentials(tx, decrypt)
}

// AfterFind decrypts credentials. A row that fails to decrypt is still
// returned, with CredentialsErr set, so one bad company cannot fail a
// listing. A missing cipher remains an error.
func (c *Company) AfterFind(tx *gorm.DB) error {
	c.CredentialsErr = nil
	err := c.transformCredentials(tx, decrypt)
	if err == nil || errors.Is(err, ErrNoCipher) {
		return err
	}
	c.CredentialsErr = err
	for _, field := range c.credentialFields() {
		*field.value = nil
	}
	return nil
}

func cipherFor(tx *gorm.DB) secrets.Cipher {
	if tx == nil || tx.Statement == nil {
		return nil
	}
	return secrets.FromContext(tx.Statement.Context)
}
