package util

import (
	"crypto/rand"
	"encoding/hex"
)

// ID prefixes used across the store.
const (
	PrefixVersion = "ver"
	PrefixBlock   = "blk"
)

func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
