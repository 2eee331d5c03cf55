// Package mocks provides testify mocks of the store interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

var (
	_ store.CompanyStore   = (*CompanyStore)(nil)
	_ store.UserStore      = (*UserStore)(nil)
	_ store.DeviceStore    = (*DeviceStore)(nil)
	_ store.ChangeLogStore = (*ChangeLogStore)(nil)
	_ store.HealthStore    = (*HealthStore)(nil)
)

// CompanyStore implements store.CompanyStore for testing using testify/mock
type CompanyStore struct {
	mock.Mock
}

func (m *CompanyStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *CompanyStore) ListActiveCompanies(ctx context.Context) ([]model.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *CompanyStore) FetchCompany(ctx context.Context, id uint) (*model.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *CompanyStore) SaveCompany(ctx context.Context, company *model.Company) (bool, error) {
	args := m.Called(ctx, company)
	return args.Bool(0), args.Error(1)
}

// UserStore implements store.UserStore for testing using testify/mock
type UserStore struct {
	mock.Mock
}

func (m *UserStore) FindUser(ctx context.Context, companyID uint, externalRef string) (*model.User, error) {
	args := m.Called(ctx, companyID, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserStore) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) UpdateUserDepartment(ctx context.Context, id uint, department string) error {
	args := m.Called(ctx, id, department)
	return args.Error(0)
}

func (m *UserStore) ListUsers(ctx context.Context, companyID uint) ([]model.User, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// DeviceStore implements store.DeviceStore for testing using testify/mock
type DeviceStore struct {
	mock.Mock
}

func (m *DeviceStore) FindDevice(ctx context.Context, companyID uint, deviceID string) (*model.Device, error) {
	args := m.Called(ctx, companyID, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Device), args.Error(1)
}

func (m *DeviceStore) CreateDevice(ctx context.Context, device *model.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *DeviceStore) UpdateDevice(ctx context.Context, device *model.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *DeviceStore) ListDevices(ctx context.Context, companyID uint) ([]model.Device, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Device), args.Error(1)
}

// ChangeLogStore implements store.ChangeLogStore for testing using testify/mock
type ChangeLogStore struct {
	mock.Mock
}

func (m *ChangeLogStore) AppendChangeLog(ctx context.Context, entry *model.DeviceChangeLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ChangeLogStore) ListChangeLog(ctx context.Context, deviceID uint) ([]model.DeviceChangeLog, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DeviceChangeLog), args.Error(1)
}

// HealthStore implements store.HealthStore for testing using testify/mock
type HealthStore struct {
	mock.Mock
}

func (m *HealthStore) CheckConnectivity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stores is a store.Stores whose members are all mocks.
type Stores struct {
	Companies *CompanyStore
	Users     *UserStore
	Devices   *DeviceStore
	ChangeLog *ChangeLogStore
	Health    *HealthStore
}

func NewStores() *Stores {
	return &Stores{
		Companies: &CompanyStore{},
		Users:     &UserStore{},
		Devices:   &DeviceStore{},
		ChangeLog: &ChangeLogStore{},
		Health:    &HealthStore{},
	}
}

// Stores returns the mocks as a store.Stores with no Transactor.
func (s *Stores) Stores() store.Stores {
	return store.Stores{
		Companies: s.Companies,
		Users:     s.Users,
		Devices:   s.Devices,
		ChangeLog: s.ChangeLog,
		Health:    s.Health,
	}
}
