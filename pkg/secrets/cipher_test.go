package secrets

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewCipher(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = NewCipher(make([]byte, 16))
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	tests := []struct {
		name      string
		aad       []byte
		plaintext []byte
	}{
		{name: "api key", aad: []byte("company:kandji_api_key"), plaintext: []byte("kandji-token")},
		{name: "empty plaintext", aad: []byte("company:graph_client_secret"), plaintext: []byte{}},
		{name: "long value", aad: []byte("company:graph_tenant_id"), plaintext: bytes.Repeat([]byte("x"), 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := c.Encrypt(tt.aad, tt.plaintext)
			require.NoError(t, err)
			assert.Equal(t, versionMagic, sealed[0])
			assert.Len(t, sealed, 1+tagSize+ivSize+len(tt.plaintext))

			opened, err := c.Decrypt(tt.aad, sealed)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.plaintext, opened))
		})
	}
}

func TestDecryptFailures(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt([]byte("company:kandji_api_key"), []byte("secret"))
	require.NoError(t, err)

	t.Run("wrong aad", func(t *testing.T) {
		_, err := c.Decrypt([]byte("company:graph_client_secret"), sealed)
		assert.Error(t, err)
	})

	t.Run("corrupted body", func(t *testing.T) {
		corrupted := append([]byte(nil), sealed...)
		corrupted[len(corrupted)-1] ^= 0xff
		_, err := c.Decrypt([]byte("company:kandji_api_key"), corrupted)
		assert.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := c.Decrypt(nil, []byte{versionMagic, 1, 2})
		assert.ErrorIs(t, err, ErrShortCiphertext)
	})

	t.Run("unknown version", func(t *testing.T) {
		bad := append([]byte(nil), sealed...)
		bad[0] = 'X'
		_, err := c.Decrypt([]byte("company:kandji_api_key"), bad)
		assert.ErrorIs(t, err, ErrUnknownVersion)
	})
}

func TestEncryptIsNotDeterministic(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt(nil, []byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt(nil, []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDataKeys(t *testing.T) {
	encoded, err := GenerateDataKey()
	require.NoError(t, err)

	key, err := ParseDataKey(encoded)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	_, err = ParseDataKey("not base64!")
	assert.Error(t, err)

	_, err = ParseDataKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	c, err := NewCipher(testKey())
	require.NoError(t, err)
	ctx := WithCipher(context.Background(), c)
	assert.Same(t, c, FromContext(ctx))
}
