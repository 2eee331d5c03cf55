package gorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

func TestCompanyStore(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewCompanyStore(db, testCipher(t))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	acme := &model.Company{Name: "Acme", KandjiAPIKey: []byte("kandji")}
	created, err := s.SaveCompany(ctx, acme)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, acme.ID)
	require.NotNil(t, acme.LastUpdated)
	assert.True(t, fixed.Equal(*acme.LastUpdated))

	archived := &model.Company{Name: "Gone", Archived: true}
	_, err = s.SaveCompany(ctx, archived)
	require.NoError(t, err)

	t.Run("fetch decrypts credentials", func(t *testing.T) {
		got, err := s.FetchCompany(ctx, acme.ID)
		require.NoError(t, err)
		assert.Equal(t, "kandji", string(got.KandjiAPIKey))
	})

	t.Run("fetch unknown", func(t *testing.T) {
		_, err := s.FetchCompany(ctx, 999)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("active excludes archived", func(t *testing.T) {
		all, err := s.ListCompanies(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		active, err := s.ListActiveCompanies(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Acme", active[0].Name)
	})

	t.Run("save existing updates in place", func(t *testing.T) {
		acme.Name = "Acme Corp"
		acme.GraphTenantID = []byte("tenant")
		created, err := s.SaveCompany(ctx, acme)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "kandji", string(acme.KandjiAPIKey))

		got, err := s.FetchCompany(ctx, acme.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", got.Name)
		assert.Equal(t, "tenant", string(got.GraphTenantID))
		assert.Equal(t, "kandji", string(got.KandjiAPIKey))
	})

	t.Run("save with unknown id inserts", func(t *testing.T) {
		created, err := s.SaveCompany(ctx, &model.Company{ID: 42, Name: "Explicit"})
		require.NoError(t, err)
		assert.True(t, created)

		got, err := s.FetchCompany(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "Explicit", got.Name)
	})
}

func TestCompanyStore_UndecryptableRow(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewCompanyStore(db, testCipher(t))

	good := &model.Company{Name: "Good", KandjiAPIKey: []byte("kandji")}
	_, err := s.SaveCompany(ctx, good)
	require.NoError(t, err)

	require.NoError(t, db.Exec(
		"INSERT INTO companies (name, kandji_api_key, archived) VALUES (?, ?, ?)",
		"Corrupt", []byte("garbage-ciphertext"), false,
	).Error)

	active, err := s.ListActiveCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)

	byName := map[string]model.Company{}
	for _, c := range active {
		byName[c.Name] = c
	}
	assert.NoError(t, byName["Good"].CredentialsErr)
	assert.Equal(t, "kandji", string(byName["Good"].KandjiAPIKey))

	corrupt := byName["Corrupt"]
	require.Error(t, corrupt.CredentialsErr)
	assert.Contains(t, corrupt.CredentialsErr.Error(), "kandji_api_key")
	assert.Empty(t, corrupt.KandjiAPIKey, "ciphertext is not handed out as a credential")
	assert.False(t, corrupt.Credentials().HasKandji())

	all, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fetched, err := s.FetchCompany(ctx, corrupt.ID)
	require.NoError(t, err)
	assert.Error(t, fetched.CredentialsErr)
	assert.NotEmpty(t, fetched.Summary().CredentialsErr)
}
