package main

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/devicehub/pkg/config"
	"github.com/doodlesbykumbi/devicehub/pkg/db"
	"github.com/doodlesbykumbi/devicehub/pkg/identity"
	"github.com/doodlesbykumbi/devicehub/pkg/reconcile"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/sources/all"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	storegorm "github.com/doodlesbykumbi/devicehub/pkg/store/gorm"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

// loadCipher builds the credential cipher from DEVICEHUB_DATA_KEY.
func loadCipher() (secrets.Cipher, error) {
	encoded, ok := os.LookupEnv("DEVICEHUB_DATA_KEY")
	if !ok || encoded == "" {
		return nil, fmt.Errorf("DEVICEHUB_DATA_KEY environment variable is required")
	}
	key, err := secrets.ParseDataKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("bad DEVICEHUB_DATA_KEY: %w", err)
	}
	cipher, err := secrets.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("unable to initiate cipher: %w", err)
	}
	return cipher, nil
}

// openStores connects to DATABASE_URL with the credential cipher attached.
func openStores() (*gorm.DB, store.Stores, secrets.Cipher, error) {
	cipher, err := loadCipher()
	if err != nil {
		return nil, store.Stores{}, nil, err
	}
	database, err := db.Connect(db.Config{Cipher: cipher})
	if err != nil {
		return nil, store.Stores{}, nil, err
	}
	return database, storegorm.NewStores(database, cipher), cipher, nil
}

func closeDB(database *gorm.DB) {
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newDriver wires the reconciliation engine and the registered sources.
func newDriver(stores store.Stores, cfg *config.DevicehubConfig, opts ...syncer.Option) *syncer.Driver {
	engine := reconcile.NewEngine(stores, identity.NewResolver(stores.Users))
	return syncer.NewDriver(stores.Companies, engine, all.Registry(), syncer.Config{
		Sources:     cfg.SourceKinds(),
		Concurrency: cfg.SyncConcurrency,
		Options:     cfg.SourceOptions(),
	}, opts...)
}

func signingKey() []byte {
	return []byte(os.Getenv("DEVICEHUB_API_SIGNING_KEY"))
}
