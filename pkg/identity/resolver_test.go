package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	gormstore "github.com/doodlesbykumbi/devicehub/pkg/store/gorm"
)

// MockUserStore implements store.UserStore for testing using testify/mock
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindUser(ctx context.Context, companyID uint, externalRef string) (*model.User, error) {
	args := m.Called(companyID, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserStore) UpdateUserDepartment(ctx context.Context, id uint, department string) error {
	args := m.Called(id, department)
	return args.Error(0)
}

func (m *MockUserStore) ListUsers(ctx context.Context, companyID uint) ([]model.User, error) {
	args := m.Called(companyID)
	return args.Get(0).([]model.User), args.Error(1)
}

func TestResolveUser_Existing(t *testing.T) {
	users := &MockUserStore{}
	users.On("FindUser", uint(7), "U9").Return(&model.User{ID: 11, ExternalRef: "U9", CompanyID: 7}, nil)

	id, err := NewResolver(users).ResolveUser(context.Background(), 7, "U9", &model.SourceUser{ExternalRef: "U9", DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, uint(11), id)
	users.AssertNotCalled(t, "CreateUser", mock.Anything)
	users.AssertNotCalled(t, "UpdateUserDepartment", mock.Anything, mock.Anything)
}

func TestResolveUser_RefreshesDepartment(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		incoming   string
		wantUpdate bool
	}{
		{name: "previously empty", stored: "", incoming: "Finance", wantUpdate: true},
		{name: "changed", stored: "Sales", incoming: "Finance", wantUpdate: true},
		{name: "same", stored: "Finance", incoming: "Finance"},
		{name: "not supplied", stored: "Finance", incoming: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &MockUserStore{}
			users.On("FindUser", uint(7), "U9").Return(&model.User{ID: 11, ExternalRef: "U9", CompanyID: 7, Department: tt.stored}, nil)
			if tt.wantUpdate {
				users.On("UpdateUserDepartment", uint(11), tt.incoming).Return(nil).Once()
			}

			id, err := NewResolver(users).ResolveUser(context.Background(), 7, "U9", &model.SourceUser{ExternalRef: "U9", Department: tt.incoming})
			require.NoError(t, err)
			assert.Equal(t, uint(11), id)
			if !tt.wantUpdate {
				users.AssertNotCalled(t, "UpdateUserDepartment", mock.Anything, mock.Anything)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestResolveUser_CreatesFromDetails(t *testing.T) {
	users := &MockUserStore{}
	users.On("FindUser", uint(7), "U9").Return(nil, store.ErrNotFound).Once()
	users.On("CreateUser", mock.MatchedBy(func(u *model.User) bool {
		return u.ExternalRef == "U9" && u.CompanyID == 7 &&
			u.DisplayName == "Ada" && u.PrincipalName == "ada@corp" && u.Email == "ada@example.com" &&
			u.LastUpdated != nil
	})).Return(nil).Once()
	users.On("FindUser", uint(7), "U9").Return(&model.User{ID: 21}, nil).Once()

	r := NewResolver(users)
	r.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	id, err := r.ResolveUser(context.Background(), 7, "U9", &model.SourceUser{
		ExternalRef:   "U9",
		DisplayName:   "Ada",
		PrincipalName: "ada@corp",
		Email:         "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(21), id)
	users.AssertExpectations(t)
}

func TestResolveUser_Placeholder(t *testing.T) {
	users := &MockUserStore{}
	users.On("FindUser", uint(7), model.UnknownUserRef).Return(nil, store.ErrNotFound).Once()
	users.On("CreateUser", mock.MatchedBy(func(u *model.User) bool {
		return u.ExternalRef == model.UnknownUserRef && u.DisplayName == model.UnknownUserRef &&
			u.Email == "" && !u.Archived
	})).Return(nil).Once()
	users.On("FindUser", uint(7), model.UnknownUserRef).Return(&model.User{ID: 5}, nil).Once()

	// Details without a reference are dropped.
	id, err := NewResolver(users).ResolveUser(context.Background(), 7, "", &model.SourceUser{DisplayName: "Somebody"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)
	users.AssertExpectations(t)
}

func TestResolveUser_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("lookup failure", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("FindUser", uint(7), "U9").Return(nil, boom)

		_, err := NewResolver(users).ResolveUser(context.Background(), 7, "U9", nil)
		assert.ErrorIs(t, err, boom)
		users.AssertNotCalled(t, "CreateUser", mock.Anything)
	})

	t.Run("create failure", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("FindUser", uint(7), "U9").Return(nil, store.ErrNotFound)
		users.On("CreateUser", mock.Anything).Return(boom)

		_, err := NewResolver(users).ResolveUser(context.Background(), 7, "U9", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("department refresh failure", func(t *testing.T) {
		users := &MockUserStore{}
		users.On("FindUser", uint(7), "U9").Return(&model.User{ID: 3}, nil)
		users.On("UpdateUserDepartment", uint(3), "Ops").Return(store.ErrUnavailable)

		_, err := NewResolver(users).ResolveUser(context.Background(), 7, "U9", &model.SourceUser{ExternalRef: "U9", Department: "Ops"})
		assert.ErrorIs(t, err, store.ErrUnavailable)
	})
}

func TestResolveUser_UnknownSingleton(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gormstore.Models()...))

	users := gormstore.NewUserStore(db)
	r := NewResolver(users)
	ctx := context.Background()

	first, err := r.ResolveUser(ctx, 7, "", nil)
	require.NoError(t, err)
	second, err := r.ResolveUser(ctx, 7, "", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := r.ResolveUser(ctx, 8, "", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	all, err := users.ListUsers(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
