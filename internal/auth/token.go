// Package auth issues and checks the secret removal tokens handed out when
// a paste is created. Only a hash of each token is ever stored.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewToken returns a fresh random removal token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Hash returns the hex SHA-256 digest stored in place of token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether token hashes to hash.
func Verify(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(token)), []byte(hash)) == 1
}
