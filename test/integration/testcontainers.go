package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	migrations "github.com/doodlesbykumbi/devicehub/db"
	"github.com/doodlesbykumbi/devicehub/pkg/db"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	storegorm "github.com/doodlesbykumbi/devicehub/pkg/store/gorm"
)

// TestContext holds the resources shared by every scenario.
type TestContext struct {
	DB          *gorm.DB
	Stores      store.Stores
	Container   testcontainers.Container
	DatabaseURL string
	Cipher      secrets.Cipher
	SigningKey  []byte
	Kandji      *FakeKandji
	HTTPClient  *http.Client
}

// NewTestContext starts PostgreSQL in a container, applies the embedded
// migrations and starts a fake Kandji API.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("devicehub_test"),
		tcpostgres.WithUsername("devicehub"),
		tcpostgres.WithPassword("devicehub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := runMigrations(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dataKey := make([]byte, 32)
	for i := range dataKey {
		dataKey[i] = byte(i)
	}
	cipher, err := secrets.NewCipher(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	database, err := db.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), cipher)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	return &TestContext{
		DB:          database,
		Stores:      storegorm.NewStores(database, cipher),
		Container:   pgContainer,
		DatabaseURL: connStr,
		Cipher:      cipher,
		SigningKey:  []byte("integration-signing-key"),
		Kandji:      NewFakeKandji(),
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func runMigrations(dbURL string) error {
	src, err := iofs.New(migrations.Migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Reset empties every table between scenarios.
func (tc *TestContext) Reset() error {
	tc.Kandji.SetDevices(nil)
	return tc.DB.Exec(`TRUNCATE device_change_logs, devices, users, companies RESTART IDENTITY CASCADE`).Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Kandji != nil {
		tc.Kandji.Close()
	}
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
