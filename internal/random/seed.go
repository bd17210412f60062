// Package random seeds the engine's pseudo-random source.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed reads a seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Seed returns configured, or a fresh seed from crypto/rand when it is 0.
func Seed(configured int64) (int64, error) {
	if configured != 0 {
		return configured, nil
	}
	return NewSeed()
}
