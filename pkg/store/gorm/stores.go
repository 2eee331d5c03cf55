package gorm

import (
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// NewStores wires every GORM store over one connection.
func NewStores(db *gorm.DB, cipher secrets.Cipher) store.Stores {
	return store.Stores{
		Companies: NewCompanyStore(db, cipher),
		Users:     NewUserStore(db),
		Devices:   NewDeviceStore(db),
		ChangeLog: NewChangeLogStore(db),
		Health:    NewHealthStore(db),
		Tx:        NewTransactor(db, cipher),
	}
}

// Models lists the tables managed by this package, for AutoMigrate in tests
// and tooling.
func Models() []interface{} {
	return []interface{}{&model.Company{}, &model.User{}, &model.Device{}, &model.DeviceChangeLog{}}
}
