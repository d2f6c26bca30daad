package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomString returns a URL-safe string with the given bytes of
// entropy. crypto/rand.Read never fails on supported platforms.
func RandomString(bytes int) string {
	b := make([]byte, bytes)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
