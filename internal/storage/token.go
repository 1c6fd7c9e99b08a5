package storage

import (
	"crypto/rand"
	"encoding/hex"
)

// NewTokenValue generates an opaque bearer token value.
func NewTokenValue() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return "tok_" + hex.EncodeToString(buf)
}
