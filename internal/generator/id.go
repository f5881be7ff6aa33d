package generator

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateKey returns a URL-safe random short key of the given length.
func GenerateKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid key length %d", length)
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	key := base64.RawURLEncoding.EncodeToString(b)
	return key[:length], nil
}
