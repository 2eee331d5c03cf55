package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// Ensure CompanyStore implements store.CompanyStore
var _ store.CompanyStore = (*CompanyStore)(nil)

// CompanyStore implements store.CompanyStore using GORM. Credential
// encryption happens in the model hooks with the store's cipher.
type CompanyStore struct {
	db     *gorm.DB
	cipher secrets.Cipher
	now    func() time.Time
}

// NewCompanyStore creates a new CompanyStore. cipher may be nil when no
// company carries credentials.
func NewCompanyStore(db *gorm.DB, cipher secrets.Cipher) *CompanyStore {
	return &CompanyStore{db: db, cipher: cipher, now: time.Now}
}

func (s *CompanyStore) conn(ctx context.Context) *gorm.DB {
	if s.cipher != nil && secrets.FromContext(ctx) == nil {
		ctx = secrets.WithCipher(ctx, s.cipher)
	}
	return s.db.WithContext(ctx)
}

func (s *CompanyStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := s.conn(ctx).Order("id").Find(&companies).Error
	return companies, translate(err)
}

func (s *CompanyStore) ListActiveCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := s.conn(ctx).Where("archived = ?", false).Order("id").Find(&companies).Error
	return companies, translate(err)
}

func (s *CompanyStore) FetchCompany(ctx context.Context, id uint) (*model.Company, error) {
	var company model.Company
	if err := s.conn(ctx).First(&company, id).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

func (s *CompanyStore) SaveCompany(ctx context.Context, company *model.Company) (bool, error) {
	now := s.now().UTC()
	company.LastUpdated = &now

	db := s.conn(ctx)
	if company.ID != 0 {
		var count int64
		if err := db.Model(&model.Company{}).Where("id = ?", company.ID).Count(&count).Error; err != nil {
			return false, translate(err)
		}
		if count > 0 {
			return false, translate(db.Save(company).Error)
		}
	}
	return true, translate(db.Create(company).Error)
}
