package container

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
)

// Gate remembers the digest of the last container bytes written or loaded
// and reports whether a new candidate differs from them.
type Gate struct {
	digest []byte // nil until the first Record
}

func NewGate() *Gate {
	return &Gate{}
}

// ShouldWrite reports whether candidate differs from the recorded bytes.
// It is always true before anything has been recorded.
func (g *Gate) ShouldWrite(candidate []byte) bool {
	if g.digest == nil {
		return true
	}
	sum := sha1.Sum(candidate)
	return !bytes.Equal(sum[:], g.digest)
}

// Record stores the digest of bytes that were just written or loaded
func (g *Gate) Record(b []byte) {
	sum := sha1.Sum(b)
	g.digest = sum[:]
}

// Reset forgets the recorded digest so the next candidate is always written
func (g *Gate) Reset() {
	g.digest = nil
}

// Digest returns the recorded digest in hex, or "" if none
func (g *Gate) Digest() string {
	if g.digest == nil {
		return ""
	}
	return hex.EncodeToString(g.digest)
}
