// Package secrets encrypts source credentials at rest.
//
// Values are sealed with AES-256-GCM using a random nonce and bound to
// additional authenticated data naming the owning record and field, so a
// ciphertext copied to another column fails to decrypt.
//
//	key, _ := secrets.ParseDataKey(os.Getenv("DEVICEHUB_DATA_KEY"))
//	c, _ := secrets.NewCipher(key)
//	sealed, _ := c.Encrypt([]byte("company:kandji_api_key"), []byte("token"))
package secrets
