package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 32
)

// GenerateID generates a cryptographically secure session id: 32
// characters from a 62-symbol alphabet, ~190 bits of entropy. Ids are
// never reused and never derived from request input; collision with a
// live session is treated as impossible by entropy.
func GenerateID() (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))

	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("session: failed to generate id: %w", err)
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b), nil
}
