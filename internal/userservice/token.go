package userservice

import (
	"crypto/sha256"
)

// HashToken returns the stored form of a plain text access token.
func HashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}
