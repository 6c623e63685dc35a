package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewConnID returns a random connection id: "c_" plus 16 hex characters.
func NewConnID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate connection id: " + err.Error())
	}
	return "c_" + hex.EncodeToString(b)
}
