package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	ivSize       = 12
	tagSize      = aes.BlockSize
	versionMagic = byte('G')

	// KeySize is the length in bytes of a data key.
	KeySize = 32
)

var (
	// ErrShortCiphertext is returned when a packed value cannot hold a header.
	ErrShortCiphertext = errors.New("ciphertext is too short")
	// ErrUnknownVersion is returned when the packed value has an unexpected version byte.
	ErrUnknownVersion = errors.New("unknown ciphertext version")
)

// Cipher encrypts and decrypts values bound to additional authenticated data.
type Cipher interface {
	Encrypt(aad, plainText []byte) ([]byte, error)
	Decrypt(aad, packedText []byte) ([]byte, error)
}

// GCM is an AES-256-GCM Cipher. Ciphertexts are packed as
// version | tag | iv | ciphertext.
type GCM struct {
	aead cipher.AEAD
}

// NewCipher builds a GCM cipher from a raw key.
func NewCipher(key []byte) (*GCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("data key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &GCM{aead: aead}, nil
}

// ParseDataKey decodes a base64 data key as printed by "devicehubctl data-key generate".
func ParseDataKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode data key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("data key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// GenerateDataKey returns a fresh base64 encoded data key.
func GenerateDataKey() (string, error) {
	key, err := RandomBytes(KeySize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.Strict().EncodeToString(key), nil
}

// RandomBytes reads size bytes from crypto/rand.
func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (g *GCM) Encrypt(aad, plainText []byte) ([]byte, error) {
	// A random 96-bit nonce per value; keys must be rotated well before 2^32 values.
	nonce, err := RandomBytes(ivSize)
	if err != nil {
		return nil, err
	}
	return pack(g.aead.Seal(nil, nonce, plainText, aad), nonce), nil
}

func (g *GCM) Decrypt(aad, packedText []byte) ([]byte, error) {
	sealed, nonce, err := unpack(packedText)
	if err != nil {
		return nil, err
	}
	return g.aead.Open(nil, nonce, sealed, aad)
}

func pack(sealed, nonce []byte) []byte {
	split := len(sealed) - tagSize
	tag, body := sealed[split:], sealed[:split]

	out := make([]byte, 0, 1+tagSize+ivSize+len(body))
	out = append(out, versionMagic)
	out = append(out, tag...)
	out = append(out, nonce[:ivSize]...)
	return append(out, body...)
}

func unpack(packed []byte) (sealed, nonce []byte, err error) {
	if len(packed) < 1+tagSize+ivSize {
		return nil, nil, ErrShortCiphertext
	}
	if packed[0] != versionMagic {
		return nil, nil, ErrUnknownVersion
	}
	tag := packed[1 : 1+tagSize]
	nonce = packed[1+tagSize : 1+tagSize+ivSize]
	body := packed[1+tagSize+ivSize:]

	sealed = make([]byte, 0, len(body)+tagSize)
	sealed = append(sealed, body...)
	return append(sealed, tag...), nonce, nil
}
