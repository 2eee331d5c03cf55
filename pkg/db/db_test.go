package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
)

func TestConnect_RequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Connect(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestOpen_AttachesCipher(t *testing.T) {
	key, err := secrets.RandomBytes(secrets.KeySize)
	require.NoError(t, err)
	cipher, err := secrets.NewCipher(key)
	require.NoError(t, err)

	database, err := Open(sqlite.Open("file::memory:"), cipher)
	require.NoError(t, err)
	assert.Same(t, cipher, secrets.FromContext(database.Statement.Context))

	plain, err := Open(sqlite.Open("file::memory:"), nil)
	require.NoError(t, err)
	assert.Nil(t, secrets.FromContext(plain.Statement.Context))
}
