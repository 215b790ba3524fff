package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/pinboard/internal/common"
)

// sessionTokenBytes is the entropy of a raw session token.
const sessionTokenBytes = 32

// NewSessionToken returns a fresh random session token (hex encoded).
func NewSessionToken() (string, error) {
	return common.MakeRandHexString(sessionTokenBytes)
}

// HashToken is the form in which a session token is persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
