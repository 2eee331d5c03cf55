package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// Ensure UserStore implements store.UserStore
var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore using GORM
type UserStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserStore creates a new UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

func (s *UserStore) FindUser(ctx context.Context, companyID uint, externalRef string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND external_ref = ?", companyID, externalRef).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *model.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *UserStore) UpdateUserDepartment(ctx context.Context, id uint, department string) error {
	tx := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"department":   department,
		"last_updated": s.now().UTC(),
	})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *UserStore) ListUsers(ctx context.Context, companyID uint) ([]model.User, error) {
	var users []model.User
	q := s.db.WithContext(ctx).Order("id")
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	return users, translate(q.Find(&users).Error)
}
