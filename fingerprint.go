package sion

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3-256 hash of the canonical text of a value.
type Digest [32]byte

// String returns the digest as "blake3:<hex>".
func (d Digest) String() string {
	return "blake3:" + hex.EncodeToString(d[:])
}

// Fingerprint hashes the canonical text of v. Two values have the same
// fingerprint if and only if they encode to the same text, so the
// fingerprint is sensitive to the order of map pairs.
func Fingerprint(v Value) (Digest, error) {
	h := blake3.New()
	if err := enc.EncodeTo(h, v); err != nil {
		return Digest{}, err
	}

	var digest Digest
	copy(digest[:], h.Sum(nil))
	return digest, nil
}
