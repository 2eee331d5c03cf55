package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/devicehub/pkg/identity"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	gormstore "github.com/doodlesbykumbi/devicehub/pkg/store/gorm"
)

var ctx = context.Background()

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newStores(t *testing.T) (store.Stores, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gormstore.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cipher, err := secrets.NewCipher(make([]byte, secrets.KeySize))
	require.NoError(t, err)
	return gormstore.NewStores(db, cipher), db
}

func newEngine(stores store.Stores, resolver UserResolver) *Engine {
	e := NewEngine(stores, resolver)
	e.now = func() time.Time { return fixedNow }
	return e
}

func laptop(name string) model.Device {
	return model.Device{
		DeviceID:   "D1",
		CompanyID:  7,
		DeviceName: name,
		Source:     model.SourceKandji.String(),
		SourceUser: &model.SourceUser{ExternalRef: "U9", DisplayName: "Uma Nine"},
	}
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveUser(ctx context.Context, companyID uint, externalRef string, details *model.SourceUser) (uint, error) {
	args := m.Called(ctx, companyID, externalRef, details)
	return args.Get(0).(uint), args.Error(1)
}

type failingChangeLog struct {
	err error
}

func (f failingChangeLog) AppendChangeLog(context.Context, *model.DeviceChangeLog) error {
	return f.err
}

func (f failingChangeLog) ListChangeLog(context.Context, uint) ([]model.DeviceChangeLog, error) {
	return nil, f.err
}

func TestReconcile_Scenario(t *testing.T) {
	stores, _ := newStores(t)
	engine := newEngine(stores, identity.NewResolver(stores.Users))

	// First sighting.
	res, err := engine.Reconcile(ctx, 7, []model.Device{laptop("Laptop-A")})
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 1}, res)

	user, err := stores.Users.FindUser(ctx, 7, "U9")
	require.NoError(t, err)
	assert.Equal(t, "Uma Nine", user.DisplayName)

	stored, err := stores.Devices.FindDevice(ctx, 7, "D1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
	assert.Empty(t, stored.LastUpdatedDesc)
	require.NotNil(t, stored.LastUpdated)
	assert.True(t, fixedNow.Equal(*stored.LastUpdated))

	entries, err := stores.ChangeLog.ListChangeLog(ctx, stored.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Renamed.
	res, err = engine.Reconcile(ctx, 7, []model.Device{laptop("Laptop-A2")})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)

	renamed, err := stores.Devices.FindDevice(ctx, 7, "D1")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, renamed.ID)
	assert.Equal(t, "Laptop-A2", renamed.DeviceName)
	assert.Equal(t, "DeviceName:Laptop-A=>Laptop-A2", renamed.LastUpdatedDesc)

	entries, err = stores.ChangeLog.ListChangeLog(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "DeviceName:Laptop-A=>Laptop-A2", entries[0].UpdateText)

	// No change.
	res, err = engine.Reconcile(ctx, 7, []model.Device{laptop("Laptop-A2")})
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 1}, res)

	again, err := stores.Devices.FindDevice(ctx, 7, "D1")
	require.NoError(t, err)
	assert.Equal(t, renamed, again)

	entries, err = stores.ChangeLog.ListChangeLog(ctx, stored.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReconcile_Idempotent(t *testing.T) {
	stores, _ := newStores(t)
	engine := newEngine(stores, identity.NewResolver(stores.Users))

	batch := []model.Device{
		laptop("Laptop-A"),
		{DeviceID: "D2", CompanyID: 7, DeviceName: "Phone", OsVersion: "17.4", Source: "Intune"},
		{DeviceID: "D3", DeviceName: "Tablet", LastEnrollment: ts("2024-01-01T00:00:00Z"), Source: "Intune"},
	}

	res, err := engine.Reconcile(ctx, 7, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)

	before, err := stores.Devices.ListDevices(ctx, 7)
	require.NoError(t, err)

	res, err = engine.Reconcile(ctx, 7, batch)
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 3}, res)

	after, err := stores.Devices.ListDevices(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReconcile_NaturalKeyUniqueness(t *testing.T) {
	stores, db := newStores(t)
	engine := newEngine(stores, identity.NewResolver(stores.Users))

	batch := []model.Device{
		laptop("Laptop-A"),
		laptop("Laptop-A"),
		{DeviceID: "D2", Source: "Intune"},
		{DeviceID: "D3", Source: "Intune", SourceUser: &model.SourceUser{DisplayName: "no ref"}},
	}
	for run := 0; run < 2; run++ {
		_, err := engine.Reconcile(ctx, 7, batch)
		require.NoError(t, err)
	}

	var devices int64
	require.NoError(t, db.Model(&model.Device{}).Where("company_id = ? AND device_id = ?", 7, "D1").Count(&devices).Error)
	assert.EqualValues(t, 1, devices)

	var unknown int64
	require.NoError(t, db.Model(&model.User{}).Where("company_id = ? AND external_ref = ?", 7, model.UnknownUserRef).Count(&unknown).Error)
	assert.EqualValues(t, 1, unknown)

	d2, err := stores.Devices.FindDevice(ctx, 7, "D2")
	require.NoError(t, err)
	d3, err := stores.Devices.FindDevice(ctx, 7, "D3")
	require.NoError(t, err)
	assert.Equal(t, d2.UserID, d3.UserID)
}

func TestReconcile_FailuresAreIsolated(t *testing.T) {
	stores, _ := newStores(t)
	resolver := &mockResolver{}
	resolver.On("ResolveUser", mock.Anything, uint(7), "U1", mock.Anything).Return(uint(0), errors.New("boom"))
	resolver.On("ResolveUser", mock.Anything, uint(7), mock.Anything, mock.Anything).Return(uint(5), nil)
	engine := newEngine(stores, resolver)

	batch := []model.Device{
		{DeviceID: "D1", Source: "Intune", SourceUser: &model.SourceUser{ExternalRef: "U1"}},
		{DeviceID: "D2", Source: "Intune"},
		{DeviceID: "", Source: "Intune"},
		{DeviceID: "D4", CompanyID: 8, Source: "Intune"},
		{DeviceID: "D5", Source: "Intune"},
	}
	res, err := engine.Reconcile(ctx, 7, batch)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, 5, res.Total())
	assert.Equal(t, []string{"D1", "", "D4"}, res.FailedDeviceIDs())

	assert.Equal(t, StageResolve, res.Failures[0].Stage)
	assert.Equal(t, StageValidate, res.Failures[1].Stage)
	assert.ErrorIs(t, &res.Failures[1], model.ErrInvalidDevice)
	assert.Equal(t, StageValidate, res.Failures[2].Stage)
	assert.Equal(t, uint(7), res.Failures[2].CompanyID)

	resolver.AssertNumberOfCalls(t, "ResolveUser", 3)
}

func TestReconcile_StoreUnavailable(t *testing.T) {
	stores, _ := newStores(t)
	down := fmt.Errorf("%w: dial tcp: connection refused", store.ErrUnavailable)

	t.Run("every device", func(t *testing.T) {
		resolver := &mockResolver{}
		resolver.On("ResolveUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(uint(0), down)

		res, err := newEngine(stores, resolver).Reconcile(ctx, 7, []model.Device{{DeviceID: "D1"}, {DeviceID: "D2"}})
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.Equal(t, 2, res.Failed)
	})

	t.Run("some devices", func(t *testing.T) {
		resolver := &mockResolver{}
		resolver.On("ResolveUser", mock.Anything, mock.Anything, "U1", mock.Anything).Return(uint(0), down)
		resolver.On("ResolveUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(uint(5), nil)

		res, err := newEngine(stores, resolver).Reconcile(ctx, 7, []model.Device{
			{DeviceID: "D1", Source: "Intune", SourceUser: &model.SourceUser{ExternalRef: "U1"}},
			{DeviceID: "D2", Source: "Intune"},
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 1, res.Inserted)
	})

	t.Run("empty batch", func(t *testing.T) {
		res, err := newEngine(stores, &mockResolver{}).Reconcile(ctx, 7, nil)
		assert.NoError(t, err)
		assert.Zero(t, res.Total())
	})
}

func TestReconcile_ChangeLogFailure(t *testing.T) {
	stores, _ := newStores(t)
	engine := newEngine(stores, identity.NewResolver(stores.Users))
	_, err := engine.Reconcile(ctx, 7, []model.Device{laptop("Laptop-A")})
	require.NoError(t, err)

	broken := stores
	broken.Tx = nil
	broken.ChangeLog = failingChangeLog{err: errors.New("disk full")}
	engine = newEngine(broken, identity.NewResolver(stores.Users))

	res, err := engine.Reconcile(ctx, 7, []model.Device{laptop("Laptop-A2")})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, StageChangeLog, res.Failures[0].Stage)
	assert.EqualError(t, res.Failures[0].Err, "disk full")
}

func TestReconcile_Cancelled(t *testing.T) {
	stores, _ := newStores(t)
	engine := newEngine(stores, &mockResolver{})

	cctx, cancel := context.WithCancel(ctx)
	cancel()

	res, err := engine.Reconcile(cctx, 7, []model.Device{laptop("Laptop-A")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Total())
}
